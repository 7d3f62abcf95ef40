package stack

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// Detector
// =============================================================================

var (
	// ErrPathNotFound is returned when the inspected directory does not exist.
	ErrPathNotFound = errors.New("repository path does not exist")
)

// Detector classifies a repository tree by its marker files.
//
// The scan is deterministic: detectors run in a fixed priority order,
// glob results are lexically sorted, and equal-confidence candidates
// resolve to the earlier detector. A detector that hits an I/O error
// simply drops out of the candidate set; it never aborts the scan.
type Detector struct{}

// NewDetector creates a stack detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect classifies the repository rooted at dir.
func (d *Detector) Detect(dir string) (Detection, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Detection{}, fmt.Errorf("%w: %s", ErrPathNotFound, dir)
	}

	// An existing Dockerfile is the strongest signal when its base image
	// names a stack outright.
	dockerCand, hasDocker := d.detectFromDockerfile(dir)
	if hasDocker && dockerCand.Confidence >= 90 {
		return dockerCand, nil
	}

	type probe func(string) (Detection, bool)
	probes := []probe{
		d.detectNode,
		d.detectPython,
		d.detectPHP,
		d.detectGo,
		d.detectRuby,
		d.detectJava,
		d.detectCSharp,
		d.detectRust,
	}

	var candidates []Detection
	for _, p := range probes {
		if cand, ok := p(dir); ok {
			candidates = append(candidates, cand)
		}
	}

	// Static-site fallback only when no marker detector matched.
	if len(candidates) == 0 {
		if cand, ok := d.detectStatic(dir); ok {
			candidates = append(candidates, cand)
		}
	}

	if len(candidates) > 0 {
		best := candidates[0]
		for _, cand := range candidates[1:] {
			if cand.Confidence > best.Confidence {
				best = cand
			}
		}
		return best, nil
	}

	if hasDocker {
		return dockerCand, nil
	}

	return Detection{Stack: Unknown, Confidence: 0, InternalPort: 3000}, nil
}

// =============================================================================
// Dockerfile Probe
// =============================================================================

func (d *Detector) detectFromDockerfile(dir string) (Detection, bool) {
	content, err := readLower(filepath.Join(dir, "Dockerfile"))
	if err != nil {
		return Detection{}, false
	}

	var baseImage string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "from") {
			baseImage = line
			break
		}
	}

	detected := Unknown
	confidence := 85
	framework := ""

	switch {
	case strings.Contains(baseImage, "node") || strings.Contains(baseImage, "npm"):
		detected = Node
		framework = nodeFrameworkFromDockerfile(content)
	case strings.Contains(baseImage, "python"):
		detected = Python
		framework = pythonFrameworkFromDockerfile(content)
	case strings.Contains(baseImage, "php"):
		detected = PHP
		framework = "PHP"
	case strings.Contains(baseImage, "golang") || strings.Contains(baseImage, "go:"):
		detected = Go
		framework = "Go"
	case strings.Contains(baseImage, "ruby"):
		detected = Ruby
		framework = "Ruby"
	case strings.Contains(baseImage, "java"):
		detected = Java
		framework = "Java"
	case strings.Contains(baseImage, "rust"):
		detected = Rust
		framework = "Rust"
	case strings.Contains(baseImage, "nginx") || strings.Contains(baseImage, "httpd"):
		detected = Static
		framework = "Web Server"
		confidence = 75
	}

	if detected == Unknown {
		return Detection{}, false
	}

	tpl := templates[detected]
	return Detection{
		Stack:            detected,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     []string{"Dockerfile"},
		Framework:        framework,
		RequiresDatabase: tpl.RequiresDatabase,
		InternalPort:     tpl.DefaultPort,
	}, true
}

func nodeFrameworkFromDockerfile(content string) string {
	if strings.Contains(content, "npm run build") || strings.Contains(content, "next build") {
		return "Next.js"
	}
	if strings.Contains(content, "nuxt") {
		return "Nuxt"
	}
	if strings.Contains(content, "gatsby") {
		return "Gatsby"
	}
	return "Node.js"
}

func pythonFrameworkFromDockerfile(content string) string {
	if strings.Contains(content, "django") {
		return "Django"
	}
	if strings.Contains(content, "flask") {
		return "Flask"
	}
	if strings.Contains(content, "fastapi") {
		return "FastAPI"
	}
	return "Python"
}

// =============================================================================
// Marker-File Probes
// =============================================================================

func (d *Detector) detectNode(dir string) (Detection, bool) {
	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return Detection{}, false
	}

	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return Detection{}, false
	}

	deps := make(map[string]struct{}, len(manifest.Dependencies)+len(manifest.DevDependencies))
	for name := range manifest.Dependencies {
		deps[name] = struct{}{}
	}
	for name := range manifest.DevDependencies {
		deps[name] = struct{}{}
	}
	has := func(name string) bool {
		_, ok := deps[name]
		return ok
	}

	framework := "Node.js"
	confidence := 75
	requiresDB := false

	switch {
	case has("express"):
		framework, confidence, requiresDB = "Express", 90, true
	case has("react") || has("react-dom"):
		framework, confidence = "React", 90
	case has("vue"):
		framework, confidence = "Vue", 90
	case has("next"):
		framework, confidence, requiresDB = "Next.js", 90, true
	case has("nuxt"):
		framework, confidence, requiresDB = "Nuxt", 90, true
	case has("nestjs") || has("@nestjs/core"):
		framework, confidence, requiresDB = "NestJS", 90, true
	case has("gatsby"):
		framework, confidence = "Gatsby", 85
	case has("svelte"):
		framework, confidence = "Svelte", 85
	case has("fastify"):
		framework, confidence, requiresDB = "Fastify", 90, true
	case has("hapi"):
		framework, confidence, requiresDB = "Hapi", 85, true
	}

	matched := []string{"package.json"}
	for _, lockfile := range []string{"package-lock.json", "yarn.lock"} {
		if fileExists(filepath.Join(dir, lockfile)) {
			matched = append(matched, lockfile)
		}
	}

	tpl := templates[Node]
	return Detection{
		Stack:            Node,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     matched,
		Framework:        framework,
		RequiresDatabase: requiresDB,
		InternalPort:     tpl.DefaultPort,
		BuildCommand:     tpl.BuildCommand,
		RunCommand:       tpl.RunCommand,
	}, true
}

func (d *Detector) detectPython(dir string) (Detection, bool) {
	var matched []string
	for _, marker := range []string{"requirements.txt", "setup.py", "poetry.lock", "Pipfile"} {
		if fileExists(filepath.Join(dir, marker)) {
			matched = append(matched, marker)
		}
	}
	if len(matched) == 0 {
		return Detection{}, false
	}

	framework := "Python"
	confidence := 70 + len(matched)*5
	requiresDB := false

	if reqs, err := readLower(filepath.Join(dir, "requirements.txt")); err == nil {
		switch {
		case strings.Contains(reqs, "django"):
			framework, confidence, requiresDB = "Django", 95, true
		case strings.Contains(reqs, "flask"):
			framework, confidence, requiresDB = "Flask", 90, true
		case strings.Contains(reqs, "fastapi"):
			framework, confidence, requiresDB = "FastAPI", 90, true
		case strings.Contains(reqs, "pyramid"):
			framework, confidence, requiresDB = "Pyramid", 85, true
		case strings.Contains(reqs, "tornado"):
			framework, confidence, requiresDB = "Tornado", 85, true
		}
	}

	if framework == "Python" {
		if setup, err := readLower(filepath.Join(dir, "setup.py")); err == nil {
			if strings.Contains(setup, "flask") || strings.Contains(setup, "django") || strings.Contains(setup, "fastapi") {
				confidence = min(95, confidence+5)
			}
		}
	}

	tpl := templates[Python]
	return Detection{
		Stack:            Python,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     matched,
		Framework:        framework,
		RequiresDatabase: requiresDB,
		InternalPort:     tpl.DefaultPort,
		BuildCommand:     tpl.BuildCommand,
		RunCommand:       tpl.RunCommand,
	}, true
}

func (d *Detector) detectPHP(dir string) (Detection, bool) {
	var matched []string
	if fileExists(filepath.Join(dir, "composer.json")) {
		matched = append(matched, "composer.json")
	}
	matched = append(matched, globNames(dir, "*.php", 3)...)
	if len(matched) == 0 {
		return Detection{}, false
	}

	framework := "PHP"
	confidence := 70 + len(matched)*5

	if composer, err := readLower(filepath.Join(dir, "composer.json")); err == nil {
		switch {
		case strings.Contains(composer, "laravel"):
			framework, confidence = "Laravel", 95
		case strings.Contains(composer, "symfony"):
			framework, confidence = "Symfony", 90
		case strings.Contains(composer, "wordpress") || strings.Contains(composer, "woocommerce"):
			framework, confidence = "WordPress", 90
		case strings.Contains(composer, "drupal"):
			framework, confidence = "Drupal", 90
		case strings.Contains(composer, "slim"):
			framework, confidence = "Slim", 85
		}
	}

	tpl := templates[PHP]
	return Detection{
		Stack:            PHP,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     matched,
		Framework:        framework,
		RequiresDatabase: true,
		InternalPort:     tpl.DefaultPort,
		BuildCommand:     tpl.BuildCommand,
		RunCommand:       tpl.RunCommand,
	}, true
}

func (d *Detector) detectGo(dir string) (Detection, bool) {
	var matched []string
	for _, marker := range []string{"go.mod", "go.sum"} {
		if fileExists(filepath.Join(dir, marker)) {
			matched = append(matched, marker)
		}
	}
	matched = append(matched, globNames(dir, "*.go", 3)...)
	if len(matched) == 0 {
		return Detection{}, false
	}

	framework := "Go"
	confidence := 75 + len(matched)*5

	if gomod, err := readLower(filepath.Join(dir, "go.mod")); err == nil {
		switch {
		case strings.Contains(gomod, "gin"):
			framework, confidence = "Gin", 90
		case strings.Contains(gomod, "echo"):
			framework, confidence = "Echo", 90
		case strings.Contains(gomod, "chi"):
			framework, confidence = "Chi", 85
		}
	}

	tpl := templates[Go]
	return Detection{
		Stack:            Go,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     matched,
		Framework:        framework,
		RequiresDatabase: true,
		InternalPort:     tpl.DefaultPort,
		BuildCommand:     tpl.BuildCommand,
		RunCommand:       tpl.RunCommand,
	}, true
}

func (d *Detector) detectRuby(dir string) (Detection, bool) {
	var matched []string
	for _, marker := range []string{"Gemfile", "Gemfile.lock"} {
		if fileExists(filepath.Join(dir, marker)) {
			matched = append(matched, marker)
		}
	}
	matched = append(matched, globNames(dir, "*.rb", 3)...)
	if len(matched) == 0 {
		return Detection{}, false
	}

	framework := "Ruby"
	confidence := 75 + len(matched)*5

	if gemfile, err := readLower(filepath.Join(dir, "Gemfile")); err == nil {
		switch {
		case strings.Contains(gemfile, "rails"):
			framework, confidence = "Rails", 95
		case strings.Contains(gemfile, "sinatra"):
			framework, confidence = "Sinatra", 90
		case strings.Contains(gemfile, "hanami"):
			framework, confidence = "Hanami", 85
		}
	}

	tpl := templates[Ruby]
	return Detection{
		Stack:            Ruby,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     matched,
		Framework:        framework,
		RequiresDatabase: true,
		InternalPort:     tpl.DefaultPort,
		BuildCommand:     tpl.BuildCommand,
		RunCommand:       tpl.RunCommand,
	}, true
}

func (d *Detector) detectJava(dir string) (Detection, bool) {
	var matched []string
	for _, marker := range []string{"pom.xml", "build.gradle", "mvnw"} {
		if fileExists(filepath.Join(dir, marker)) {
			matched = append(matched, marker)
		}
	}
	if n := countFilesRecursive(dir, ".java"); n > 0 {
		matched = append(matched, fmt.Sprintf("%d .java files", n))
	}
	if len(matched) == 0 {
		return Detection{}, false
	}

	framework := "Java"
	confidence := 75 + len(matched)*5

	if pom, err := readLower(filepath.Join(dir, "pom.xml")); err == nil {
		switch {
		case strings.Contains(pom, "spring-boot"):
			framework, confidence = "Spring Boot", 95
		case strings.Contains(pom, "spring"):
			framework, confidence = "Spring", 90
		case strings.Contains(pom, "quarkus"):
			framework, confidence = "Quarkus", 85
		}
	}

	tpl := templates[Java]
	return Detection{
		Stack:            Java,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     matched,
		Framework:        framework,
		RequiresDatabase: true,
		InternalPort:     tpl.DefaultPort,
		BuildCommand:     tpl.BuildCommand,
		RunCommand:       tpl.RunCommand,
	}, true
}

func (d *Detector) detectCSharp(dir string) (Detection, bool) {
	matched := globNames(dir, "*.csproj", 3)
	matched = append(matched, globNames(dir, "*.sln", 1)...)
	if len(matched) == 0 {
		return Detection{}, false
	}

	framework := ".NET"
	confidence := 80 + len(matched)*5

	projects := globNames(dir, "*.csproj", 1)
	if len(projects) > 0 {
		if proj, err := readLower(filepath.Join(dir, projects[0])); err == nil {
			switch {
			case strings.Contains(proj, "aspnetcore"):
				framework, confidence = "ASP.NET Core", 95
			case strings.Contains(proj, "aspnet"):
				framework, confidence = "ASP.NET", 90
			}
		}
	}

	tpl := templates[CSharp]
	return Detection{
		Stack:            CSharp,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     matched,
		Framework:        framework,
		RequiresDatabase: true,
		InternalPort:     tpl.DefaultPort,
		BuildCommand:     tpl.BuildCommand,
		RunCommand:       tpl.RunCommand,
	}, true
}

func (d *Detector) detectRust(dir string) (Detection, bool) {
	var matched []string
	for _, marker := range []string{"Cargo.toml", "Cargo.lock"} {
		if fileExists(filepath.Join(dir, marker)) {
			matched = append(matched, marker)
		}
	}
	if n := countFilesRecursive(dir, ".rs"); n > 0 {
		matched = append(matched, fmt.Sprintf("%d .rs files", n))
	}
	if len(matched) == 0 {
		return Detection{}, false
	}

	framework := "Rust"
	confidence := 80 + len(matched)*5

	if cargo, err := readLower(filepath.Join(dir, "Cargo.toml")); err == nil {
		switch {
		case strings.Contains(cargo, "actix-web"):
			framework, confidence = "Actix-web", 95
		case strings.Contains(cargo, "rocket"):
			framework, confidence = "Rocket", 95
		case strings.Contains(cargo, "axum"):
			framework, confidence = "Axum", 90
		case strings.Contains(cargo, "warp"):
			framework, confidence = "Warp", 85
		}
	}

	tpl := templates[Rust]
	return Detection{
		Stack:            Rust,
		Confidence:       clampConfidence(confidence),
		MatchedFiles:     matched,
		Framework:        framework,
		RequiresDatabase: false,
		InternalPort:     tpl.DefaultPort,
		BuildCommand:     tpl.BuildCommand,
		RunCommand:       tpl.RunCommand,
	}, true
}

func (d *Detector) detectStatic(dir string) (Detection, bool) {
	// A component tree under src/ means a bundler build; leave those to
	// the Node probe.
	if len(globNames(filepath.Join(dir, "src"), "*.tsx", 1)) > 0 ||
		len(globNames(filepath.Join(dir, "src"), "*.jsx", 1)) > 0 {
		return Detection{}, false
	}

	var matched []string
	for _, index := range []string{"index.html", "index.htm"} {
		if fileExists(filepath.Join(dir, index)) {
			matched = append(matched, index)
		}
	}
	matched = append(matched, globNames(dir, "*.html", 3)...)
	if n := len(globNames(dir, "*.css", 0)); n > 0 {
		matched = append(matched, fmt.Sprintf("%d .css files", n))
	}
	if len(matched) == 0 {
		return Detection{}, false
	}

	tpl := templates[Static]
	return Detection{
		Stack:            Static,
		Confidence:       clampConfidence(60 + len(matched)*3),
		MatchedFiles:     matched,
		Framework:        "Static Site",
		RequiresDatabase: false,
		InternalPort:     tpl.DefaultPort,
	}, true
}

// =============================================================================
// Filesystem Helpers
// =============================================================================

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func readLower(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToLower(string(raw)), nil
}

// globNames returns the base names matching pattern directly under dir,
// lexically sorted, truncated to limit (0 means no limit).
func globNames(dir, pattern string, limit int) []string {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names
}

func countFilesRecursive(dir, ext string) int {
	count := 0
	filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ext) {
			count++
		}
		return nil
	})
	return count
}
