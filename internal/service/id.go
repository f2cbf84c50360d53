package service

import (
	"strings"

	"github.com/google/uuid"
)

// Record identifier prefixes, one per document type.
const (
	prefixOpportunity = "OPP"
	prefixLead        = "LEAD"
	prefixQuotation   = "QTN"
)

// newID builds a prefixed record identifier, e.g. "OPP-1e4f9c2a8b3d".
func newID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + raw[:12]
}
