package stack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDetector_Detect_MissingPath(t *testing.T) {
	d := NewDetector()

	_, err := d.Detect(filepath.Join(t.TempDir(), "nope"))

	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestDetector_Detect_EmptyDirectory(t *testing.T) {
	d := NewDetector()

	det, err := d.Detect(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, Unknown, det.Stack)
	assert.Equal(t, 0, det.Confidence)
	assert.Equal(t, 3000, det.InternalPort)
}

func TestDetector_Detect_NodeExpress(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies": {"express": "^4.18.0"}}`)
	writeFile(t, dir, "package-lock.json", "{}")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Node, det.Stack)
	assert.Equal(t, "Express", det.Framework)
	assert.Equal(t, 90, det.Confidence)
	assert.True(t, det.RequiresDatabase)
	assert.Equal(t, 3000, det.InternalPort)
	assert.Equal(t, []string{"package.json", "package-lock.json"}, det.MatchedFiles)
}

func TestDetector_Detect_NodeBareManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"name": "plain", "dependencies": {}}`)

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Node, det.Stack)
	assert.Equal(t, "Node.js", det.Framework)
	assert.Equal(t, 75, det.Confidence)
	assert.False(t, det.RequiresDatabase)
}

func TestDetector_Detect_NodeMalformedManifestFallsThrough(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", "{not json")
	writeFile(t, dir, "requirements.txt", "flask==3.0\n")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Python, det.Stack)
	assert.Equal(t, "Flask", det.Framework)
}

func TestDetector_Detect_NodeFrameworks(t *testing.T) {
	tests := []struct {
		name       string
		manifest   string
		framework  string
		confidence int
		requiresDB bool
	}{
		{"react", `{"dependencies": {"react": "18"}}`, "React", 90, false},
		{"vue", `{"dependencies": {"vue": "3"}}`, "Vue", 90, false},
		{"next", `{"dependencies": {"next": "14"}}`, "Next.js", 90, true},
		{"nestjs", `{"dependencies": {"@nestjs/core": "10"}}`, "NestJS", 90, true},
		{"gatsby", `{"devDependencies": {"gatsby": "5"}}`, "Gatsby", 85, false},
		{"svelte", `{"devDependencies": {"svelte": "4"}}`, "Svelte", 85, false},
		{"fastify", `{"dependencies": {"fastify": "4"}}`, "Fastify", 90, true},
		{"hapi", `{"dependencies": {"hapi": "21"}}`, "Hapi", 85, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "package.json", tc.manifest)

			det, err := NewDetector().Detect(dir)

			require.NoError(t, err)
			assert.Equal(t, Node, det.Stack)
			assert.Equal(t, tc.framework, det.Framework)
			assert.Equal(t, tc.confidence, det.Confidence)
			assert.Equal(t, tc.requiresDB, det.RequiresDatabase)
		})
	}
}

func TestDetector_Detect_PythonFlask(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "flask==3.0.0\ngunicorn\n")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Python, det.Stack)
	assert.Equal(t, "Flask", det.Framework)
	assert.GreaterOrEqual(t, det.Confidence, 90)
	assert.True(t, det.RequiresDatabase)
	assert.Equal(t, 8000, det.InternalPort)
}

func TestDetector_Detect_PythonSetupBoost(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "requests\n")
	writeFile(t, dir, "setup.py", "install_requires=['flask']\n")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Python, det.Stack)
	assert.Equal(t, "Python", det.Framework)
	// Two markers plus the setup.py framework hint.
	assert.Equal(t, 85, det.Confidence)
}

func TestDetector_Detect_PHPLaravel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "composer.json", `{"require": {"laravel/framework": "^10"}}`)
	writeFile(t, dir, "index.php", "<?php\n")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, PHP, det.Stack)
	assert.Equal(t, "Laravel", det.Framework)
	assert.Equal(t, 95, det.Confidence)
	assert.True(t, det.RequiresDatabase)
	assert.Contains(t, det.MatchedFiles, "index.php")
}

func TestDetector_Detect_GoGin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module demo\n\nrequire github.com/gin-gonic/gin v1.9.0\n")
	writeFile(t, dir, "main.go", "package main\n")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Go, det.Stack)
	assert.Equal(t, "Gin", det.Framework)
	assert.Equal(t, 90, det.Confidence)
	assert.Equal(t, 8080, det.InternalPort)
}

func TestDetector_Detect_RubyRails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Gemfile", `gem "rails", "~> 7.1"`)

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Ruby, det.Stack)
	assert.Equal(t, "Rails", det.Framework)
	assert.Equal(t, 95, det.Confidence)
}

func TestDetector_Detect_JavaSpringBoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pom.xml", "<artifactId>spring-boot-starter-web</artifactId>")
	writeFile(t, dir, "src/main/java/App.java", "class App {}")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Java, det.Stack)
	assert.Equal(t, "Spring Boot", det.Framework)
	assert.Equal(t, 95, det.Confidence)
	assert.Contains(t, det.MatchedFiles, "1 .java files")
}

func TestDetector_Detect_CSharpAspNetCore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.csproj", `<PackageReference Include="Microsoft.AspNetCore.App" />`)

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, CSharp, det.Stack)
	assert.Equal(t, "ASP.NET Core", det.Framework)
	assert.Equal(t, 95, det.Confidence)
	assert.Equal(t, 5000, det.InternalPort)
}

func TestDetector_Detect_RustActix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", `[dependencies]
actix-web = "4"`)
	writeFile(t, dir, "src/main.rs", "fn main() {}")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Rust, det.Stack)
	assert.Equal(t, "Actix-web", det.Framework)
	assert.Equal(t, 95, det.Confidence)
	assert.False(t, det.RequiresDatabase)
}

func TestDetector_Detect_StaticSite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")
	writeFile(t, dir, "about.html", "<html></html>")
	writeFile(t, dir, "style.css", "body {}")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Static, det.Stack)
	assert.Equal(t, "Static Site", det.Framework)
	assert.False(t, det.RequiresDatabase)
}

func TestDetector_Detect_StaticSkippedForComponentTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")
	writeFile(t, dir, "src/App.jsx", "export default () => null")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Unknown, det.Stack)
}

func TestDetector_Detect_MarkersBeatStatic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")
	writeFile(t, dir, "package.json", `{"dependencies": {"react": "18"}}`)

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Node, det.Stack)
	assert.GreaterOrEqual(t, det.Confidence, 90)
}

func TestDetector_Detect_DockerfileNginxFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM nginx:alpine\nCOPY . /usr/share/nginx/html\n")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Static, det.Stack)
	assert.Equal(t, 75, det.Confidence)
	assert.Equal(t, []string{"Dockerfile"}, det.MatchedFiles)
}

func TestDetector_Detect_DockerfileYieldsToStrongerMarkers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM node:18-alpine\nRUN npm install\n")
	writeFile(t, dir, "package.json", `{"dependencies": {"express": "4"}}`)

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Node, det.Stack)
	assert.Equal(t, "Express", det.Framework)
	assert.Equal(t, 90, det.Confidence)
}

func TestDetector_Detect_DockerfileFrameworkHints(t *testing.T) {
	tests := []struct {
		name       string
		dockerfile string
		stack      Stack
		framework  string
	}{
		{"next", "FROM node:18\nRUN npm run build\n", Node, "Next.js"},
		{"nuxt", "FROM node:18\nRUN nuxt generate\n", Node, "Nuxt"},
		{"django", "FROM python:3.11\nRUN django-admin check\n", Python, "Django"},
		{"golang", "FROM golang:1.21-alpine\n", Go, "Go"},
		{"java", "FROM java:8-jre\nCOPY app.jar .\n", Java, "Java"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "Dockerfile", tc.dockerfile)

			det, err := NewDetector().Detect(dir)

			require.NoError(t, err)
			assert.Equal(t, tc.stack, det.Stack)
			assert.Equal(t, tc.framework, det.Framework)
			assert.Equal(t, 85, det.Confidence)
		})
	}
}

func TestDetector_Detect_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies": {"express": "4"}}`)
	writeFile(t, dir, "requirements.txt", "flask\n")
	writeFile(t, dir, "zeta.php", "<?php\n")
	writeFile(t, dir, "alpha.php", "<?php\n")

	d := NewDetector()
	first, err := d.Detect(dir)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := d.Detect(dir)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDetector_Detect_TieBreakPrefersEarlierStack(t *testing.T) {
	dir := t.TempDir()
	// Two markers each puts both probes at the same confidence.
	writeFile(t, dir, "go.mod", "module demo\n")
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "Gemfile", "source 'https://rubygems.org'\n")
	writeFile(t, dir, "app.rb", "puts :hi\n")

	det, err := NewDetector().Detect(dir)

	require.NoError(t, err)
	assert.Equal(t, Go, det.Stack)
	assert.Equal(t, 85, det.Confidence)
}
