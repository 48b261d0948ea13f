// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

// NamedAddress represents a host name, together with an IP address, the
// address' scope and quality (verification status, [Quality] type), as well
// as the optional reachability outcome of the host.
//
// A NamedAddress without an address announces a host; a NamedAddress without
// an address but with a reachability outcome reports the host's probe result.
type NamedAddress interface {
	QualifiedAddress
	Name() string          // host name
	Reach() *ProbeOutcome  // host reachability, or nil if not (yet) probed.
	NA() NamedAddressValue // returns a copy
}

// QualifiedAddress gives access to qualified address information and also
// allows updating the quality information aspect of an address.
type QualifiedAddress interface {
	Addr() string                                         // returns address
	Qual() Quality                                        // returns Quality
	Scope() Scope                                         // returns the address scope
	Err() error                                           // if Quality is Invalid, optional additional error information.
	QA() QualifiedAddressValue                            // returns (a copy of) the qualified address information
	WithNewQuality(q Quality, err error) QualifiedAddress // returns a new and updated qualified address
}

// NamedAddressValue implements a concrete representation of a [NamedAddress].
type NamedAddressValue struct {
	Host                  string        `json:"host"`            // the host name as given
	Outcome               *ProbeOutcome `json:"reach,omitempty"` // reachability of the host, if known
	QualifiedAddressValue               // a single associated (resolved) IP network address
}

var _ NamedAddress = (*NamedAddressValue)(nil)

// Name returns the host name.
func (na *NamedAddressValue) Name() string {
	return na.Host
}

// Reach returns the host's probe outcome, or nil.
func (na *NamedAddressValue) Reach() *ProbeOutcome {
	return na.Outcome
}

// NA returns (a copy of) the named address information.
func (na *NamedAddressValue) NA() NamedAddressValue {
	return *na
}

// WithNewQuality returns newly qualified (named) address information.
func (na *NamedAddressValue) WithNewQuality(q Quality, err error) QualifiedAddress {
	qa := na.QA()
	qa.Quality = q
	qa.err = err
	return &NamedAddressValue{
		Host:                  na.Host,
		Outcome:               na.Outcome,
		QualifiedAddressValue: qa,
	}
}

// QualifiedAddressValue is a network address with an associated scope and
// quality, such as unverified, verifying, verified, and invalid.
type QualifiedAddressValue struct {
	Address   string  `json:"address"` // a single network IP (v4/v6) address
	Quality   Quality `json:"quality"` // quality (validation) state
	AddrScope Scope   `json:"scope"`   // private or public address space
	err       error   // optional error details for invalid addresses
}

var _ QualifiedAddress = (*QualifiedAddressValue)(nil)

// Addr returns the address.
func (qa *QualifiedAddressValue) Addr() string { return qa.Address }

// Qual return the quality.
func (qa *QualifiedAddressValue) Qual() Quality { return qa.Quality }

// Scope returns the address scope.
func (qa *QualifiedAddressValue) Scope() Scope { return qa.AddrScope }

// Err returns an optional error that occurred while trying to validate an
// address.
func (qa *QualifiedAddressValue) Err() error { return qa.err }

// QA returns (a copy of) the qualified address information.
func (qa *QualifiedAddressValue) QA() QualifiedAddressValue {
	return *qa
}

// WithNewQuality returns newly qualified address information.
func (qa *QualifiedAddressValue) WithNewQuality(q Quality, err error) QualifiedAddress {
	return &QualifiedAddressValue{
		Address:   qa.Address,
		Quality:   q,
		AddrScope: qa.AddrScope,
		err:       err,
	}
}
