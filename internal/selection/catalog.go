package selection

// Catalog is the static reference data the engine selects from: which
// payload types a scenario category may use, which design variants fit a
// style hint, and which brand pool belongs to a category. Loaded once,
// never mutated during a request.
type Catalog struct {
	CategoryPayloads map[string][]string
	StyleDesigns     map[string][]string
	CategoryBrands   map[string][]string
	// BrandPoolOrder is the fallback chain walked when a category's own
	// pool is empty or missing.
	BrandPoolOrder []string

	DefaultPayloads []string
	DefaultDesigns  []string
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		CategoryPayloads: map[string][]string{
			"finance":   {"pdf", "excel", "cta", "form"},
			"hr":        {"pdf", "form", "login", "cta"},
			"it":        {"login", "cta", "qr", "attachment"},
			"saas":      {"login", "cta", "qr"},
			"logistics": {"pdf", "cta", "form"},
			"executive": {"pdf", "cta"},
		},
		StyleDesigns: map[string][]string{
			"corporate": {"corporate", "plain"},
			"modern":    {"modern", "saas"},
			"plain":     {"plain"},
			"alert":     {"alert", "corporate"},
		},
		CategoryBrands: map[string][]string{
			"finance":   {"acme-bank", "payflow", "invoicely"},
			"it":        {"cloudsync", "netsecure", "helpdesk-pro"},
			"saas":      {"cloudsync", "teamboard", "docushare"},
			"hr":        {"peoplehub", "benefits-plus"},
			"logistics": {"shipfast", "parcelpoint"},
		},
		BrandPoolOrder: []string{"saas", "it", "finance", "hr", "logistics"},

		DefaultPayloads: []string{"cta", "pdf", "login", "form"},
		DefaultDesigns:  []string{"plain", "corporate"},
	}
}

// AllowedPayloads is the scenario's own payload hint unioned with the
// category-derived set, hint first so it stays the preferred head.
func (c *Catalog) AllowedPayloads(s Scenario) []string {
	base := c.CategoryPayloads[s.Category]
	if len(base) == 0 {
		base = c.DefaultPayloads
	}

	if s.PayloadHint == "" {
		return append([]string(nil), base...)
	}

	allowed := []string{s.PayloadHint}
	for _, p := range base {
		if p != s.PayloadHint {
			allowed = append(allowed, p)
		}
	}
	return allowed
}

// CandidateDesigns derives the design variant candidates from the style
// hint; it/saas scenarios always include the "saas" variant.
func (c *Catalog) CandidateDesigns(s Scenario) []string {
	designs := c.StyleDesigns[s.StyleHint]
	if len(designs) == 0 {
		designs = c.DefaultDesigns
	}
	designs = append([]string(nil), designs...)

	if s.Category == "it" || s.Category == "saas" {
		if !contains(designs, "saas") {
			designs = append(designs, "saas")
		}
	}
	return designs
}

// BrandPool resolves the brand pool for a category, walking the fallback
// chain when the primary pool is empty.
func (c *Catalog) BrandPool(category string) []string {
	if pool := c.CategoryBrands[category]; len(pool) > 0 {
		return pool
	}
	for _, alt := range c.BrandPoolOrder {
		if alt == category {
			continue
		}
		if pool := c.CategoryBrands[alt]; len(pool) > 0 {
			return pool
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
