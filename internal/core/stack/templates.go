package stack

// =============================================================================
// Stack Templates
// =============================================================================

// Template holds the per-stack deployment defaults consumed by the
// artifact generators: conventional build/run commands, the container's
// internal port, baseline environment and the paths excluded from the
// build context.
type Template struct {
	Stack            Stack             `json:"name"`
	DisplayName      string            `json:"display_name"`
	DefaultPort      int               `json:"default_port"`
	BuildCommand     string            `json:"build_command,omitempty"`
	RunCommand       string            `json:"run_command"`
	Environment      map[string]string `json:"environment"`
	ExcludedPaths    []string          `json:"excluded_paths"`
	RequiresDatabase bool              `json:"requires_database"`
	HealthCheckPath  string            `json:"health_check,omitempty"`
	WorkDir          string            `json:"working_directory"`
}

var templates = map[Stack]Template{
	Node: {
		Stack:            Node,
		DisplayName:      "Node.js",
		DefaultPort:      3000,
		BuildCommand:     "npm install",
		RunCommand:       "npm start",
		Environment:      map[string]string{"NODE_ENV": "production"},
		ExcludedPaths:    []string{"node_modules", ".git", ".gitignore"},
		RequiresDatabase: true,
		HealthCheckPath:  "/health",
		WorkDir:          "/app",
	},
	Python: {
		Stack:            Python,
		DisplayName:      "Python",
		DefaultPort:      8000,
		BuildCommand:     "pip install -r requirements.txt",
		RunCommand:       "python main.py",
		Environment:      map[string]string{"PYTHONUNBUFFERED": "1"},
		ExcludedPaths:    []string{"__pycache__", ".git", "venv", ".venv"},
		RequiresDatabase: true,
		HealthCheckPath:  "/health",
		WorkDir:          "/app",
	},
	PHP: {
		Stack:            PHP,
		DisplayName:      "PHP",
		DefaultPort:      8000,
		BuildCommand:     "composer install",
		RunCommand:       "php -S 0.0.0.0:8000",
		Environment:      map[string]string{"PHP_DISPLAY_ERRORS": "0"},
		ExcludedPaths:    []string{"vendor", ".git", "node_modules"},
		RequiresDatabase: true,
		HealthCheckPath:  "/health.php",
		WorkDir:          "/app",
	},
	Go: {
		Stack:            Go,
		DisplayName:      "Go",
		DefaultPort:      8080,
		BuildCommand:     "go build -o app",
		RunCommand:       "./app",
		Environment:      map[string]string{"CGO_ENABLED": "0"},
		ExcludedPaths:    []string{".git", "vendor"},
		RequiresDatabase: true,
		HealthCheckPath:  "/health",
		WorkDir:          "/app",
	},
	Ruby: {
		Stack:            Ruby,
		DisplayName:      "Ruby",
		DefaultPort:      3000,
		BuildCommand:     "bundle install",
		RunCommand:       "rails server -b 0.0.0.0",
		Environment:      map[string]string{"RAILS_ENV": "production"},
		ExcludedPaths:    []string{"vendor", ".git", "node_modules"},
		RequiresDatabase: true,
		HealthCheckPath:  "/health",
		WorkDir:          "/app",
	},
	Java: {
		Stack:            Java,
		DisplayName:      "Java",
		DefaultPort:      8080,
		BuildCommand:     "mvn clean package -DskipTests",
		RunCommand:       "java -jar target/app.jar",
		Environment:      map[string]string{"JAVA_OPTS": "-Xmx512m"},
		ExcludedPaths:    []string{".git", "target"},
		RequiresDatabase: true,
		HealthCheckPath:  "/health",
		WorkDir:          "/app",
	},
	CSharp: {
		Stack:            CSharp,
		DisplayName:      ".NET / C#",
		DefaultPort:      5000,
		BuildCommand:     "dotnet build",
		RunCommand:       "dotnet run",
		Environment:      map[string]string{"ASPNETCORE_ENVIRONMENT": "Production"},
		ExcludedPaths:    []string{".git", "bin", "obj"},
		RequiresDatabase: true,
		HealthCheckPath:  "/health",
		WorkDir:          "/app",
	},
	Rust: {
		Stack:            Rust,
		DisplayName:      "Rust",
		DefaultPort:      8080,
		BuildCommand:     "cargo build --release",
		RunCommand:       "./target/release/app",
		Environment:      map[string]string{},
		ExcludedPaths:    []string{".git", "target"},
		RequiresDatabase: false,
		WorkDir:          "/app",
	},
	Static: {
		Stack:            Static,
		DisplayName:      "Static Site",
		DefaultPort:      3000,
		RunCommand:       "http-server -p 3000",
		Environment:      map[string]string{},
		ExcludedPaths:    []string{".git", "node_modules"},
		RequiresDatabase: false,
		WorkDir:          "/app",
	},
}

// TemplateFor returns the template for a stack.
func TemplateFor(s Stack) (Template, bool) {
	t, ok := templates[s]
	return t, ok
}

// Templates returns all stack templates in detection priority order.
func Templates() []Template {
	out := make([]Template, 0, len(detectionOrder))
	for _, s := range detectionOrder {
		out = append(out, templates[s])
	}
	return out
}
