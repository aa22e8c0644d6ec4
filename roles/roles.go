// Package roles resolves a user's authorization role and decides which
// management sections of the console that role may see. The role itself is
// a single read-only lookup against the platform; row-level authorization
// stays server-side.
package roles

// RoleType represents a staff authorization role.
type RoleType string

const (
	RoleUser            RoleType = "user"             // Regular member, no management pages
	RoleJournalismAdmin RoleType = "journalism_admin" // Manages written content
	RoleRadioAdmin      RoleType = "radio_admin"      // Manages the radio desk
	RoleFullAdmin       RoleType = "full_admin"       // Manages everything
)

// Known reports whether role is one of the defined roles.
func (r RoleType) Known() bool {
	switch r {
	case RoleUser, RoleJournalismAdmin, RoleRadioAdmin, RoleFullAdmin:
		return true
	}
	return false
}

// Section identifies a management area of the console.
type Section string

const (
	SectionArticles      Section = "articles"
	SectionNews          Section = "news"
	SectionRadioPrograms Section = "radio_programs"
	SectionEvents        Section = "events"
	SectionOrganization  Section = "organization"
	SectionTestimonials  Section = "testimonials"
	SectionTheme         Section = "theme"
	SectionPopups        Section = "popups"
)

var allSections = []Section{
	SectionArticles,
	SectionNews,
	SectionRadioPrograms,
	SectionEvents,
	SectionOrganization,
	SectionTestimonials,
	SectionTheme,
	SectionPopups,
}

var sectionsByRole = map[RoleType][]Section{
	RoleUser:            {},
	RoleJournalismAdmin: {SectionArticles, SectionNews, SectionTestimonials},
	RoleRadioAdmin:      {SectionRadioPrograms, SectionEvents},
	RoleFullAdmin:       allSections,
}

// CanManage reports whether role may see the management page for section.
func CanManage(role RoleType, section Section) bool {
	for _, s := range sectionsByRole[role] {
		if s == section {
			return true
		}
	}
	return false
}

// ManageableSections returns the sections visible to role, in display order.
func ManageableSections(role RoleType) []Section {
	return append([]Section(nil), sectionsByRole[role]...)
}
