package routing

// PageType identifies an abstract page independent of its URL text.
type PageType string

const (
	PageHome             PageType = "home"
	PageWebDesign        PageType = "web-design"
	PageWebDevelopment   PageType = "web-development"
	PageSEO              PageType = "seo"
	PageDigitalMarketing PageType = "digital-marketing"
	PageBranding         PageType = "branding"
	PageServiceInquiry   PageType = "service-inquiry"
	PageFreeConsultation PageType = "free-consultation"
)

// SegmentKey identifies one translatable path segment.
type SegmentKey string

const (
	SegmentServices         SegmentKey = "services"
	SegmentWebDesign        SegmentKey = "web-design"
	SegmentWebDevelopment   SegmentKey = "web-development"
	SegmentSEO              SegmentKey = "seo"
	SegmentDigitalMarketing SegmentKey = "digital-marketing"
	SegmentBranding         SegmentKey = "branding"
	SegmentServiceInquiry   SegmentKey = "service-inquiry"
	SegmentFreeConsultation SegmentKey = "free-consultation"
)

// homeKey is the slug table entry for the home page.
const homeKey = "home"

var pages = []PageType{
	PageHome,
	PageWebDesign,
	PageWebDevelopment,
	PageSEO,
	PageDigitalMarketing,
	PageBranding,
	PageServiceInquiry,
	PageFreeConsultation,
}

var servicePages = []PageType{
	PageWebDesign,
	PageWebDevelopment,
	PageSEO,
	PageDigitalMarketing,
	PageBranding,
}

var pageSegments = map[PageType][]SegmentKey{
	PageHome:             {},
	PageWebDesign:        {SegmentServices, SegmentWebDesign},
	PageWebDevelopment:   {SegmentServices, SegmentWebDevelopment},
	PageSEO:              {SegmentServices, SegmentSEO},
	PageDigitalMarketing: {SegmentServices, SegmentDigitalMarketing},
	PageBranding:         {SegmentServices, SegmentBranding},
	PageServiceInquiry:   {SegmentServiceInquiry},
	PageFreeConsultation: {SegmentFreeConsultation},
}

// Pages returns every page in declaration order.
func Pages() []PageType {
	out := make([]PageType, len(pages))
	copy(out, pages)
	return out
}

// ServicePages returns the five service pages.
func ServicePages() []PageType {
	out := make([]PageType, len(servicePages))
	copy(out, servicePages)
	return out
}

// ParsePageType converts s to a PageType if it names a known page.
func ParsePageType(s string) (PageType, bool) {
	p := PageType(s)
	if _, ok := pageSegments[p]; ok {
		return p, true
	}
	return "", false
}

// Valid reports whether p belongs to the closed page set.
func (p PageType) Valid() bool {
	_, ok := pageSegments[p]
	return ok
}

// IsService reports whether p is one of the service pages.
func (p PageType) IsService() bool {
	for _, s := range servicePages {
		if s == p {
			return true
		}
	}
	return false
}

// Segments returns the abstract segment composition of p. Unknown pages
// compose to their own raw key.
func (p PageType) Segments() []SegmentKey {
	segs, ok := pageSegments[p]
	if !ok {
		return []SegmentKey{SegmentKey(p)}
	}
	out := make([]SegmentKey, len(segs))
	copy(out, segs)
	return out
}

func (p PageType) String() string { return string(p) }
