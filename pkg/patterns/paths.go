package patterns

// TargetPath maps a file kind (controller, model, action, dto, repository,
// service, ...) to the conventional directory for the detected architecture.
// scope names the module or domain when the label has one; it defaults to
// the first detected entry, then "Core".
func TargetPath(det Detection, kind, scope string) string {
	switch det.Label {
	case LabelModular:
		module := scope
		if module == "" {
			if modules := det.Structure["modules"]; len(modules) > 0 {
				module = modules[0]
			}
		}
		if module == "" {
			module = "Core"
		}
		switch kind {
		case "controller":
			return "Modules/" + module + "/Http/Controllers"
		case "model":
			return "Modules/" + module + "/Entities"
		case "action":
			return "Modules/" + module + "/Actions"
		case "dto":
			return "Modules/" + module + "/DTO"
		case "repository":
			return "Modules/" + module + "/Repositories"
		case "service":
			return "Modules/" + module + "/Services"
		default:
			return "Modules/" + module
		}
	case LabelDDD:
		domain := scope
		if domain == "" {
			if domains := det.Structure["domains"]; len(domains) > 0 {
				domain = domains[0]
			}
		}
		if domain == "" {
			domain = "Core"
		}
		switch kind {
		case "controller":
			return "app/Application/Controllers"
		case "model":
			return "app/Domain/" + domain + "/Models"
		case "entity":
			return "app/Domain/" + domain + "/Entities"
		case "action":
			return "app/Domain/" + domain + "/Actions"
		case "dto":
			return "app/Domain/" + domain + "/DTO"
		case "repository":
			return "app/Domain/" + domain + "/Repositories"
		case "service":
			return "app/Domain/" + domain + "/Services"
		case "value_object":
			return "app/Domain/" + domain + "/ValueObjects"
		default:
			return "app/Domain/" + domain
		}
	default:
		switch kind {
		case "controller":
			return "app/Http/Controllers"
		case "model":
			return "app/Models"
		case "action":
			return "app/Actions"
		case "dto":
			return "app/DTO"
		case "repository":
			return "app/Repositories"
		case "service":
			return "app/Services"
		default:
			return "app"
		}
	}
}
