// Package artifact renders the build artifacts a deployment needs: a
// Dockerfile matched to the detected stack and a compose file wiring
// the application to its backing services. Rendering is pure and
// deterministic, the same detection always yields the same bytes.
package artifact

import (
	"fmt"
	"strings"

	"github.com/artpar/repodock/internal/core/stack"
)

// Generator renders Dockerfiles and compose files from a stack detection.
type Generator struct{}

// NewGenerator creates an artifact generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Dockerfile renders a Dockerfile for the detected stack. Unknown
// stacks get a skeleton that needs manual completion.
func (g *Generator) Dockerfile(det stack.Detection) string {
	switch det.Stack {
	case stack.Node:
		return g.nodeDockerfile(det)
	case stack.Python:
		return g.pythonDockerfile(det)
	case stack.PHP:
		return g.phpDockerfile(det)
	case stack.Go:
		return g.goDockerfile(det)
	case stack.Ruby:
		return g.rubyDockerfile(det)
	case stack.Java:
		return g.javaDockerfile(det)
	case stack.CSharp:
		return g.csharpDockerfile(det)
	case stack.Rust:
		return g.rustDockerfile(det)
	case stack.Static:
		return g.staticDockerfile(det)
	default:
		return g.fallbackDockerfile(det)
	}
}

func header(det stack.Detection, defaultFramework string) string {
	framework := det.Framework
	if framework == "" {
		framework = defaultFramework
	}
	return fmt.Sprintf("# Generated Dockerfile for %s application\n# Stack: %s\n# Confidence: %d%%\n",
		framework, det.Stack, det.Confidence)
}

func (g *Generator) nodeDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.Node)
	var b strings.Builder
	b.WriteString(header(det, "Node.js"))
	fmt.Fprintf(&b, `
FROM node:18-alpine

WORKDIR %s

# Copy package files
COPY package*.json ./

# Install dependencies
RUN npm install --production

# Copy application code
COPY . .

# Build if needed (for Next.js, TypeScript, etc.)
RUN npm run build --if-present || true

# Expose port
EXPOSE %d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD node -e "require('http').get('http://localhost:%d', (r) => { if (r.statusCode !== 200) throw new Error(r.statusCode) })"

# Start application
CMD npm start
`, tpl.WorkDir, tpl.DefaultPort, tpl.DefaultPort)
	return b.String()
}

func (g *Generator) pythonDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.Python)

	runCmd := tpl.RunCommand
	switch det.Framework {
	case "Django":
		runCmd = "python manage.py runserver 0.0.0.0:8000"
	case "Flask":
		runCmd = "flask run --host=0.0.0.0"
	case "FastAPI":
		runCmd = "uvicorn main:app --host 0.0.0.0 --port 8000"
	}

	var b strings.Builder
	b.WriteString(header(det, "Python"))
	fmt.Fprintf(&b, `
FROM python:3.11-slim

WORKDIR %s

# Install system dependencies
RUN apt-get update && apt-get install -y --no-install-recommends \
    build-essential \
    && rm -rf /var/lib/apt/lists/*

# Copy requirements
COPY requirements.txt .

# Install Python dependencies
RUN pip install --no-cache-dir -r requirements.txt

# Copy application code
COPY . .

# Expose port
EXPOSE %d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD python -c "import urllib.request; urllib.request.urlopen('http://localhost:%d/health')" || exit 1

# Set environment
ENV PYTHONUNBUFFERED=1

# Start application
CMD %s
`, tpl.WorkDir, tpl.DefaultPort, tpl.DefaultPort, runCmd)
	return b.String()
}

func (g *Generator) phpDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.PHP)
	var b strings.Builder
	b.WriteString(header(det, "PHP"))
	fmt.Fprintf(&b, `
FROM php:8.2-apache

WORKDIR %s

# Install PHP extensions
RUN docker-php-ext-install pdo pdo_mysql mysqli

# Install Composer
RUN curl -sS https://getcomposer.org/installer | php -- --install-dir=/usr/local/bin --filename=composer

# Copy composer files
COPY composer.json composer.lock* ./

# Install dependencies
RUN composer install --no-dev --optimize-autoloader

# Copy application code
COPY . .

# Enable Apache modules
RUN a2enmod rewrite

# Configure Apache
RUN echo '<Directory /app>' > /etc/apache2/sites-enabled/000-default.conf && \
    echo '    AllowOverride All' >> /etc/apache2/sites-enabled/000-default.conf && \
    echo '    Require all granted' >> /etc/apache2/sites-enabled/000-default.conf && \
    echo '</Directory>' >> /etc/apache2/sites-enabled/000-default.conf && \
    echo 'DocumentRoot /app/public' >> /etc/apache2/sites-enabled/000-default.conf

# Expose port
EXPOSE %d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD curl -f http://localhost:%d/ || exit 1

# Start Apache
CMD ["apache2-foreground"]
`, tpl.WorkDir, tpl.DefaultPort, tpl.DefaultPort)
	return b.String()
}

func (g *Generator) goDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.Go)
	var b strings.Builder
	b.WriteString(header(det, "Go"))
	fmt.Fprintf(&b, `
# Build stage
FROM golang:1.21-alpine AS builder

WORKDIR %[1]s

# Copy go mod files
COPY go.mod go.sum ./

# Download dependencies
RUN go mod download

# Copy source
COPY . .

# Build
RUN CGO_ENABLED=0 GOOS=linux go build -a -installsuffix cgo -o app .

# Runtime stage
FROM alpine:latest

WORKDIR %[1]s

# Copy binary from builder
COPY --from=builder %[1]s/app .

# Expose port
EXPOSE %[2]d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD wget --quiet --tries=1 --spider http://localhost:%[2]d/health || exit 1

# Start application
CMD ["./app"]
`, tpl.WorkDir, tpl.DefaultPort)
	return b.String()
}

func (g *Generator) rubyDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.Ruby)

	runCmd := tpl.RunCommand
	if det.Framework == "Rails" {
		runCmd = "bundle exec rails server -b 0.0.0.0 -p 3000"
	}

	var b strings.Builder
	b.WriteString(header(det, "Ruby"))
	fmt.Fprintf(&b, `
FROM ruby:3.2-slim

WORKDIR %s

# Install system dependencies
RUN apt-get update && apt-get install -y --no-install-recommends \
    build-essential \
    git \
    postgresql-client \
    && rm -rf /var/lib/apt/lists/*

# Copy Gemfile
COPY Gemfile Gemfile.lock ./

# Install gems
RUN bundle install

# Copy application
COPY . .

# Expose port
EXPOSE %d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD curl -f http://localhost:%d/ || exit 1

# Start application
CMD %s
`, tpl.WorkDir, tpl.DefaultPort, tpl.DefaultPort, runCmd)
	return b.String()
}

func (g *Generator) javaDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.Java)
	var b strings.Builder
	b.WriteString(header(det, "Java"))
	fmt.Fprintf(&b, `
FROM maven:3.9-eclipse-temurin-21 AS builder

WORKDIR %[1]s

# Copy pom.xml
COPY pom.xml .

# Download dependencies
RUN mvn dependency:resolve

# Copy source
COPY . .

# Build
RUN mvn clean package -DskipTests

# Runtime stage
FROM eclipse-temurin:21-jre-alpine

WORKDIR %[1]s

# Copy jar from builder
COPY --from=builder %[1]s/target/*.jar app.jar

# Expose port
EXPOSE %[2]d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD wget --quiet --tries=1 --spider http://localhost:%[2]d/health || exit 1

# Start application
CMD ["java", "-jar", "app.jar"]
`, tpl.WorkDir, tpl.DefaultPort)
	return b.String()
}

func (g *Generator) csharpDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.CSharp)
	var b strings.Builder
	b.WriteString(header(det, ".NET"))
	fmt.Fprintf(&b, `
FROM mcr.microsoft.com/dotnet/sdk:8.0 AS builder

WORKDIR %[1]s

# Copy project files
COPY *.csproj ./

# Restore dependencies
RUN dotnet restore

# Copy source
COPY . .

# Build
RUN dotnet build -c Release

# Publish
RUN dotnet publish -c Release -o out

# Runtime stage
FROM mcr.microsoft.com/dotnet/aspnet:8.0

WORKDIR %[1]s

# Copy from builder
COPY --from=builder %[1]s/out .

# Expose port
EXPOSE %[2]d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD curl -f http://localhost:%[2]d/health || exit 1

# Start application
CMD ["dotnet", "*.dll"]
`, tpl.WorkDir, tpl.DefaultPort)
	return b.String()
}

func (g *Generator) rustDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.Rust)
	var b strings.Builder
	b.WriteString(header(det, "Rust"))
	fmt.Fprintf(&b, `
FROM rust:latest AS builder

WORKDIR %[1]s

# Copy files
COPY Cargo.toml Cargo.lock ./
RUN mkdir src && echo "fn main(){}" > src/main.rs

# Build dependencies (cache layer)
RUN cargo build --release && rm -rf src

# Copy source
COPY src ./src

# Build application
RUN cargo build --release

# Runtime stage
FROM debian:bookworm-slim

WORKDIR %[1]s

RUN apt-get update && apt-get install -y ca-certificates && rm -rf /var/lib/apt/lists/*

# Copy binary from builder
COPY --from=builder %[1]s/target/release/app .

# Expose port
EXPOSE %[2]d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD curl -f http://localhost:%[2]d/ || exit 1

# Start application
CMD ["./app"]
`, tpl.WorkDir, tpl.DefaultPort)
	return b.String()
}

func (g *Generator) staticDockerfile(det stack.Detection) string {
	tpl, _ := stack.TemplateFor(stack.Static)

	framework := det.Framework
	if framework == "" {
		framework = "Static Site"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Generated Dockerfile for %s\n# Stack: %s\n# Confidence: %d%%\n",
		framework, det.Stack, det.Confidence)
	fmt.Fprintf(&b, `
FROM node:18-alpine

WORKDIR %s

# Install http-server globally
RUN npm install -g http-server

# Copy files
COPY . .

# Expose port
EXPOSE %d

# Health check
HEALTHCHECK --interval=30s --timeout=3s --start-period=40s --retries=3 \
  CMD wget --quiet --tries=1 --spider http://localhost:%d/ || exit 1

# Start server
CMD ["http-server", "-p", "%d"]
`, tpl.WorkDir, tpl.DefaultPort, tpl.DefaultPort, tpl.DefaultPort)
	return b.String()
}

func (g *Generator) fallbackDockerfile(det stack.Detection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Generated Dockerfile for unknown stack\n# Detected stack: %s\n# Confidence: %d%%\n# MANUAL CONFIGURATION REQUIRED\n",
		det.Stack, det.Confidence)
	b.WriteString(`
FROM ubuntu:22.04

WORKDIR /app

# Copy files
COPY . .

# Expose port
EXPOSE 3000

# Install dependencies and set a real entrypoint before deploying.
ENTRYPOINT ["/bin/bash"]
`)
	return b.String()
}
