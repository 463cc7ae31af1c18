// Package patterns classifies a scanned project's architectural convention
// from path heuristics. The result only chooses where generated files land;
// it is not a semantic analysis.
package patterns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/workshopai/workshop/pkg/scan"
)

// Labels returned by Detect.
const (
	LabelDDD        = "ddd"
	LabelModular    = "modular"
	LabelActions    = "actions"
	LabelDTO        = "dto"
	LabelRepository = "repository"
	LabelService    = "service"
	LabelNone       = "none"
)

// Detection is the outcome of one detector pass.
type Detection struct {
	Label      string              `json:"label"`
	Confidence float64             `json:"confidence"`
	Evidence   []string            `json:"evidence,omitempty"`
	Structure  map[string][]string `json:"structure,omitempty"`
	Forced     bool                `json:"forced,omitempty"`
}

// Rule scores one architectural convention against the scanned paths.
// Rules are evaluated in order; on equal confidence the earlier rule wins,
// which makes precedence explicit instead of incidental.
type Rule struct {
	Label string
	Score func(px *scan.ProjectContext) (confidence float64, evidence []string, structure map[string][]string)
}

// detectionThreshold is the minimum confidence for a rule to count at all.
const detectionThreshold = 0.3

// Detect runs the rules in one deterministic pass. A non-empty forced label
// short-circuits detection entirely.
func Detect(px *scan.ProjectContext, forced string) Detection {
	if forced != "" {
		return Detection{
			Label:      forced,
			Confidence: 1.0,
			Evidence:   []string{"architecture forced by configuration"},
			Forced:     true,
		}
	}

	best := Detection{Label: LabelNone}
	for _, rule := range DefaultRules() {
		conf, evidence, structure := rule.Score(px)
		if conf > 1.0 {
			conf = 1.0
		}
		if conf < detectionThreshold {
			continue
		}
		// Strictly greater: ties resolve to the earlier rule.
		if conf > best.Confidence {
			best = Detection{
				Label:      rule.Label,
				Confidence: conf,
				Evidence:   evidence,
				Structure:  structure,
			}
		}
	}
	return best
}

// DefaultRules returns the rule list in precedence order.
func DefaultRules() []Rule {
	return []Rule{
		{Label: LabelDDD, Score: scoreDDD},
		{Label: LabelModular, Score: scoreModular},
		{Label: LabelActions, Score: scoreActions},
		{Label: LabelDTO, Score: scoreDTO},
		{Label: LabelRepository, Score: scoreRepository},
		{Label: LabelService, Score: scoreService},
	}
}

func scoreDDD(px *scan.ProjectContext) (float64, []string, map[string][]string) {
	var conf float64
	var evidence []string
	structure := map[string][]string{}

	for _, indicator := range []string{"Domain", "Domains", "Application", "Infrastructure", "ValueObjects", "Entities", "Aggregates"} {
		if hasDirSegment(px, indicator) {
			evidence = append(evidence, fmt.Sprintf("found %s directory", indicator))
			conf += 0.15
		}
	}

	if domains := subdirsOf(px, "app/Domain", "app/Domains"); len(domains) > 0 {
		evidence = append(evidence, fmt.Sprintf("found %d domain modules", len(domains)))
		conf += 0.2
		structure["domains"] = domains
	}

	if countSuffix(px, "Repository.php") > 0 {
		evidence = append(evidence, "found repository classes")
		conf += 0.1
	}
	if countSuffix(px, "Entity.php") > 0 {
		evidence = append(evidence, "found entity classes")
		conf += 0.1
	}
	return conf, evidence, structure
}

func scoreModular(px *scan.ProjectContext) (float64, []string, map[string][]string) {
	var conf float64
	var evidence []string
	structure := map[string][]string{}

	modules := subdirsOf(px, "Modules")
	if len(modules) == 0 {
		return 0, nil, nil
	}
	evidence = append(evidence, "found Modules directory")
	conf += 0.5
	evidence = append(evidence, fmt.Sprintf("found %d modules", len(modules)))
	conf += 0.3
	structure["modules"] = modules

	if hasPrefix(px, "Modules/"+modules[0]+"/Entities/") {
		evidence = append(evidence, "modules use entities")
	}
	if hasPrefix(px, "Modules/"+modules[0]+"/Http/Controllers/") {
		evidence = append(evidence, "modules have controllers")
	}
	return conf, evidence, structure
}

func scoreActions(px *scan.ProjectContext) (float64, []string, map[string][]string) {
	var conf float64
	var evidence []string

	dirs := matchDirs(px, "app/Actions/", "Actions/")
	if len(dirs) > 0 {
		evidence = append(evidence, fmt.Sprintf("found %d Actions directories", len(dirs)))
		conf += 0.4
	}
	if n := countSuffix(px, "Action.php"); n > 0 {
		evidence = append(evidence, fmt.Sprintf("found %d Action classes", n))
		conf += 0.3
	}
	return conf, evidence, nil
}

func scoreDTO(px *scan.ProjectContext) (float64, []string, map[string][]string) {
	var conf float64
	var evidence []string

	dirs := matchDirs(px, "app/DTO/", "app/DTOs/", "app/DataTransferObjects/", "DTO/")
	if len(dirs) > 0 {
		evidence = append(evidence, fmt.Sprintf("found %d DTO directories", len(dirs)))
		conf += 0.4
	}
	if n := countSuffix(px, "DTO.php"); n > 0 {
		evidence = append(evidence, fmt.Sprintf("found %d DTO classes", n))
		conf += 0.3
	}
	return conf, evidence, nil
}

func scoreRepository(px *scan.ProjectContext) (float64, []string, map[string][]string) {
	var conf float64
	var evidence []string
	structure := map[string][]string{}

	if n := countSuffix(px, "Repository.php"); n > 0 {
		evidence = append(evidence, fmt.Sprintf("found %d Repository classes", n))
		conf += 0.4
		if countSuffix(px, "RepositoryInterface.php") > 0 {
			evidence = append(evidence, "found repository interfaces")
			conf += 0.2
			structure["uses_interfaces"] = []string{"true"}
		}
	}
	return conf, evidence, structure
}

func scoreService(px *scan.ProjectContext) (float64, []string, map[string][]string) {
	var conf float64
	var evidence []string

	if hasDirSegment(px, "Services") {
		evidence = append(evidence, "found Services directory")
		conf += 0.4
	}
	if n := countSuffix(px, "Service.php"); n > 0 {
		evidence = append(evidence, fmt.Sprintf("found %d Service classes", n))
		conf += 0.3
	}
	return conf, evidence, nil
}

// --- path helpers over the scanned relative paths ---

func hasDirSegment(px *scan.ProjectContext, segment string) bool {
	needle := "/" + segment + "/"
	for p := range px.Files {
		if strings.Contains("/"+p, needle) {
			return true
		}
	}
	return false
}

func hasPrefix(px *scan.ProjectContext, prefix string) bool {
	for p := range px.Files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func countSuffix(px *scan.ProjectContext, suffix string) int {
	n := 0
	for p := range px.Files {
		if strings.HasSuffix(p, suffix) {
			n++
		}
	}
	return n
}

// subdirsOf returns the immediate child directory names that appear under
// any of the given prefixes.
func subdirsOf(px *scan.ProjectContext, prefixes ...string) []string {
	seen := map[string]bool{}
	for p := range px.Files {
		for _, prefix := range prefixes {
			rest, ok := strings.CutPrefix(p, prefix+"/")
			if !ok {
				continue
			}
			if idx := strings.IndexByte(rest, '/'); idx > 0 {
				seen[rest[:idx]] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// matchDirs returns distinct directories whose path contains one of the
// given fragments.
func matchDirs(px *scan.ProjectContext, fragments ...string) []string {
	seen := map[string]bool{}
	for p := range px.Files {
		for _, frag := range fragments {
			if idx := strings.Index(p, frag); idx >= 0 {
				seen[p[:idx+len(frag)-1]] = true
			}
		}
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}
