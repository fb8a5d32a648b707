package extop

import "fmt"

// ResultCode is the status of a completed operation.
type ResultCode int

// Result codes a directory server may return for an extended operation.
const (
	ResultSuccess                      ResultCode = 0
	ResultOperationsError              ResultCode = 1
	ResultProtocolError                ResultCode = 2
	ResultTimeLimitExceeded            ResultCode = 3
	ResultSizeLimitExceeded            ResultCode = 4
	ResultAuthMethodNotSupported       ResultCode = 7
	ResultStrongerAuthRequired         ResultCode = 8
	ResultReferral                     ResultCode = 10
	ResultAdminLimitExceeded           ResultCode = 11
	ResultUnavailableCriticalExtension ResultCode = 12
	ResultConfidentialityRequired      ResultCode = 13
	ResultNoSuchAttribute              ResultCode = 16
	ResultNoSuchObject                 ResultCode = 32
	ResultInvalidDNSyntax              ResultCode = 34
	ResultInappropriateAuthentication  ResultCode = 48
	ResultInvalidCredentials           ResultCode = 49
	ResultInsufficientAccessRights     ResultCode = 50
	ResultBusy                         ResultCode = 51
	ResultUnavailable                  ResultCode = 52
	ResultUnwillingToPerform           ResultCode = 53
	ResultOther                        ResultCode = 80
	ResultCanceled                     ResultCode = 118
	ResultNoSuchOperation              ResultCode = 119
	ResultTooLate                      ResultCode = 120
	ResultCannotCancel                 ResultCode = 121
	ResultNoOperation                  ResultCode = 16654
)

var resultCodeNames = map[ResultCode]string{
	ResultSuccess:                      "success",
	ResultOperationsError:              "operations error",
	ResultProtocolError:                "protocol error",
	ResultTimeLimitExceeded:            "time limit exceeded",
	ResultSizeLimitExceeded:            "size limit exceeded",
	ResultAuthMethodNotSupported:       "auth method not supported",
	ResultStrongerAuthRequired:         "stronger auth required",
	ResultReferral:                     "referral",
	ResultAdminLimitExceeded:           "admin limit exceeded",
	ResultUnavailableCriticalExtension: "unavailable critical extension",
	ResultConfidentialityRequired:      "confidentiality required",
	ResultNoSuchAttribute:              "no such attribute",
	ResultNoSuchObject:                 "no such object",
	ResultInvalidDNSyntax:              "invalid DN syntax",
	ResultInappropriateAuthentication:  "inappropriate authentication",
	ResultInvalidCredentials:           "invalid credentials",
	ResultInsufficientAccessRights:     "insufficient access rights",
	ResultBusy:                         "busy",
	ResultUnavailable:                  "unavailable",
	ResultUnwillingToPerform:           "unwilling to perform",
	ResultOther:                        "other",
	ResultCanceled:                     "canceled",
	ResultNoSuchOperation:              "no such operation",
	ResultTooLate:                      "too late",
	ResultCannotCancel:                 "cannot cancel",
	ResultNoOperation:                  "no operation",
}

// String returns the code's name followed by its number.
func (c ResultCode) String() string {
	if name, ok := resultCodeNames[c]; ok {
		return fmt.Sprintf("%s (%d)", name, int(c))
	}
	return fmt.Sprintf("result code %d", int(c))
}

// IsSuccess reports whether c indicates success.
func (c ResultCode) IsSuccess() bool {
	return c == ResultSuccess
}
