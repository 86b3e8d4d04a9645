package model

import (
	"fmt"
	"strings"
)

// Domain tags a column with the kind of values it is expected to hold.
// It only selects the default catalog and repair pipeline for the column.
type Domain string

const (
	DomainNumeric  Domain = "numeric"
	DomainText     Domain = "text"
	DomainDatetime Domain = "datetime"
)

// String returns the domain name
func (d Domain) String() string {
	return string(d)
}

// ParseDomain converts a name (case-insensitive) to a Domain
func ParseDomain(name string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "numeric", "number", "numerical":
		return DomainNumeric, nil
	case "text", "string", "categorical":
		return DomainText, nil
	case "datetime", "date", "time", "timestamp":
		return DomainDatetime, nil
	default:
		return "", fmt.Errorf("unknown domain %q", name)
	}
}
