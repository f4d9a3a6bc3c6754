package onboarding

import (
	"strings"

	"github.com/locvowork/hr_onboarding_portal/internal/domain"
)

// Employee-facing page paths.
const (
	PathDashboard   = "/employee"
	PathBasicInfo   = "/employee/basic-info"
	PathPreJoining  = "/employee/pre-joining"
	PathPostJoining = "/employee/post-joining"
	PathDocuments   = "/employee/documents"
)

// Section groups forms behind one stage gate.
type Section string

const (
	SectionPreJoining  Section = "pre-joining"
	SectionPostJoining Section = "post-joining"
)

var formSections = map[domain.FormKey]Section{
	domain.FormApplication:  SectionPreJoining,
	domain.FormEmployeeInfo: SectionPreJoining,
	domain.FormDeclaration:  SectionPreJoining,
	domain.FormMediclaim:    SectionPostJoining,
	domain.FormEPF:          SectionPostJoining,
	domain.FormNDA:          SectionPostJoining,
	domain.FormTDS:          SectionPostJoining,
	domain.FormGratuity:     SectionPostJoining,
}

var formLabels = map[domain.FormKey]string{
	domain.FormApplication:  "Application Form",
	domain.FormEmployeeInfo: "Employee Information",
	domain.FormDeclaration:  "Declaration",
	domain.FormMediclaim:    "Mediclaim",
	domain.FormEPF:          "EPF Nomination",
	domain.FormNDA:          "Non-Disclosure Agreement",
	domain.FormTDS:          "TDS Declaration",
	domain.FormGratuity:     "Gratuity Nomination",
}

// FormSection returns the section a form belongs to.
func FormSection(key domain.FormKey) (Section, bool) {
	s, ok := formSections[key]
	return s, ok
}

// FormsIn lists the forms of a section in display order.
func FormsIn(section Section) []domain.FormKey {
	var out []domain.FormKey
	for _, k := range domain.AllFormKeys() {
		if formSections[k] == section {
			out = append(out, k)
		}
	}
	return out
}

// SectionPath is the landing page of a section.
func SectionPath(section Section) string {
	if section == SectionPostJoining {
		return PathPostJoining
	}
	return PathPreJoining
}

// FormPath is the page path of a single form.
func FormPath(key domain.FormKey) string {
	section, _ := FormSection(key)
	return SectionPath(section) + "/" + string(key)
}

// SectionOpen reports whether the stage passes a section gate.
func SectionOpen(stage domain.Stage, section Section) bool {
	stage = stage.Canonical()
	switch section {
	case SectionPreJoining:
		switch stage {
		case domain.StagePreJoining, domain.StagePreJoiningVerified, domain.StagePostJoining, domain.StageOnboarded:
			return true
		}
	case SectionPostJoining:
		return stage == domain.StagePostJoining || stage == domain.StageOnboarded
	}
	return false
}

// CanReachForm is the single gate for a form: its section is open and HR has not disabled it.
func CanReachForm(stage domain.Stage, key domain.FormKey, disabled bool) bool {
	section, ok := FormSection(key)
	if !ok {
		return false
	}
	return SectionOpen(stage, section) && !disabled
}

// MenuItem is one sidebar entry. Section entries carry their reachable forms as children.
type MenuItem struct {
	Label    string     `json:"label"`
	Path     string     `json:"path"`
	Children []MenuItem `json:"children,omitempty"`
}

// Navigation is what an employee may currently open.
type Navigation struct {
	Stage       domain.Stage            `json:"stage"`
	PreJoining  bool                    `json:"preJoining"`
	PostJoining bool                    `json:"postJoining"`
	Forms       map[domain.FormKey]bool `json:"forms"`
	Menu        []MenuItem              `json:"menu"`
}

// Navigate computes reachability for every form and the sidebar built from it.
// disabled holds the per-form HR toggle; absent keys are enabled.
func Navigate(stage domain.Stage, disabled map[domain.FormKey]bool) Navigation {
	nav := Navigation{
		Stage:       stage,
		PreJoining:  SectionOpen(stage, SectionPreJoining),
		PostJoining: SectionOpen(stage, SectionPostJoining),
		Forms:       make(map[domain.FormKey]bool, len(formSections)),
	}
	for _, k := range domain.AllFormKeys() {
		nav.Forms[k] = CanReachForm(stage, k, disabled[k])
	}

	nav.Menu = []MenuItem{
		{Label: "Dashboard", Path: PathDashboard},
		{Label: "Basic Information", Path: PathBasicInfo},
	}
	if nav.PreJoining {
		nav.Menu = append(nav.Menu, sectionMenu("Pre-Joining Forms", SectionPreJoining, nav.Forms))
		nav.Menu = append(nav.Menu, MenuItem{Label: "Documents", Path: PathDocuments})
	}
	if nav.PostJoining {
		nav.Menu = append(nav.Menu, sectionMenu("Post-Joining Forms", SectionPostJoining, nav.Forms))
	}
	return nav
}

func sectionMenu(label string, section Section, reachable map[domain.FormKey]bool) MenuItem {
	item := MenuItem{Label: label, Path: SectionPath(section)}
	for _, k := range FormsIn(section) {
		if reachable[k] {
			item.Children = append(item.Children, MenuItem{Label: formLabels[k], Path: FormPath(k)})
		}
	}
	return item
}

// Guard is the page-entry verdict for a path.
type Guard struct {
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

func allow() Guard { return Guard{Allowed: true} }

func redirect(to string) Guard { return Guard{RedirectTo: to} }

// GuardRoute decides whether an employee at stage may open path. Paths outside the
// form sections are always allowed.
func GuardRoute(path string, stage domain.Stage, disabled map[domain.FormKey]bool) Guard {
	path = strings.TrimRight(strings.TrimSpace(path), "/")

	var section Section
	var rest string
	switch {
	case path == PathPreJoining || strings.HasPrefix(path, PathPreJoining+"/"):
		section, rest = SectionPreJoining, strings.TrimPrefix(path, PathPreJoining)
	case path == PathPostJoining || strings.HasPrefix(path, PathPostJoining+"/"):
		section, rest = SectionPostJoining, strings.TrimPrefix(path, PathPostJoining)
	case path == PathDocuments:
		section = SectionPreJoining
	default:
		return allow()
	}

	if !SectionOpen(stage, section) {
		return redirect(blockedTarget(stage))
	}

	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return allow()
	}
	key, err := domain.ParseFormKey(rest)
	if err != nil {
		return redirect(SectionPath(section))
	}
	if s, _ := FormSection(key); s != section {
		return redirect(SectionPath(section))
	}
	if !CanReachForm(stage, key, disabled[key]) {
		return redirect(SectionPath(section))
	}
	return allow()
}

// blockedTarget sends BASIC_INFO employees back to profile capture and everyone else home.
func blockedTarget(stage domain.Stage) string {
	if stage == domain.StageBasicInfo {
		return PathBasicInfo
	}
	return PathDashboard
}
