// Package types defines the typed payloads carried by directory extended
// operations: changelog batch requests and their streamed entries, log
// capture windows, single-use token delivery, password quality
// requirements, listener certificate replacement and support data
// collection.
//
// Every payload encodes to a ber.Element and decodes from one. Decoding
// selects sum-type variants by tag and reports failures as
// *ber.DecodeError; constructors and Validate methods report invariant
// violations the same way.
//
//nolint:revive // types is a common Go package naming convention
package types

// Operation identifiers. These strings are part of the wire contract and
// must match the server bit for bit.
const (
	// OIDChangelogBatchRequest identifies the changelog batch extended request.
	OIDChangelogBatchRequest = "1.3.6.1.4.1.30221.2.6.10"
	// OIDChangelogEntry identifies the changelog entry intermediate response.
	OIDChangelogEntry = "1.3.6.1.4.1.30221.2.6.11"
	// OIDMissingChangelogEntries identifies the missing changelog entries
	// intermediate response.
	OIDMissingChangelogEntries = "1.3.6.1.4.1.30221.2.6.12"

	OIDGetPasswordQualityRequirementsRequest = "1.3.6.1.4.1.30221.2.6.43"
	OIDGetPasswordQualityRequirementsResult  = "1.3.6.1.4.1.30221.2.6.44"

	OIDDeliverSingleUseTokenRequest = "1.3.6.1.4.1.30221.2.6.49"
	OIDDeliverSingleUseTokenResult  = "1.3.6.1.4.1.30221.2.6.50"

	OIDCollectSupportDataRequest         = "1.3.6.1.4.1.30221.2.6.64"
	OIDCollectSupportDataOutput          = "1.3.6.1.4.1.30221.2.6.65"
	OIDCollectSupportDataArchiveFragment = "1.3.6.1.4.1.30221.2.6.66"

	OIDReplaceListenerCertificateRequest = "1.3.6.1.4.1.30221.2.6.69"
)
