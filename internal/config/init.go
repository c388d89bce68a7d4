package config

import (
	"fmt"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
)

// ExampleConfig is written by Init.
const ExampleConfig = `# reportbuilder configuration
#
# Sections are generated in the order listed here; that order is the page
# order of the final document.

output:
  path: computer_graphics_report.pdf

workspace:
  # Leave empty for a unique directory under the OS temp dir, or pin one:
  # dir: temp

page:
  size: A4
  orientation: portrait
  font: Helvetica
  font_size: 12
  # font_file: RobotoMono.ttf   # UTF-8 TrueType font for non-Latin text

pipeline:
  producer_timeout: 2m   # "0s" disables the per-section deadline

cleanup:
  retry:
    backoff: linear
    initial: 50ms
    max: 500ms
    max_retries: 2

logging:
  level: info
  format: text

# metrics:
#   textfile: reportbuilder.prom
#   listen: 127.0.0.1:9464
# history:
#   path: reportbuilder-history.db

sections:
  - name: title
    kind: text
    title: Computer Graphics
    paragraphs:
      - Laboratory report.
  - name: curves
    kind: markdown
    body: |
      # Parametric curves

      Tangent and normal vectors sampled along the curve.
  - name: samples
    kind: chart
    title: Sample values
    labels: [a, b, c, d]
    values: [3, 5, 2, 6]
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "create config directory").Fatal().Build()
		}
	}
	if err := os.WriteFile(configPath, []byte(ExampleConfig), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "write config file").Fatal().Build()
	}
	return nil
}
