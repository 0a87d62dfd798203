package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/tenxdev/internal/validate"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTagsNormalize(t *testing.T) {
	out, err := run(t, "", "tags", "normalize", "OAuth", "golang", "Rust")
	require.NoError(t, err)
	assert.Equal(t, "OAuth -> authentication\ngolang -> backend\nRust -> rust\n", out)

	out, err = run(t, "Login\n\n  k8s \n", "tags", "normalize")
	require.NoError(t, err)
	assert.Equal(t, "Login -> authentication\nk8s -> devops\n", out)
}

func TestTagsList(t *testing.T) {
	out, err := run(t, "", "tags", "list")
	require.NoError(t, err)
	assert.Contains(t, strings.Split(strings.TrimSpace(out), "\n"), "devops")

	out, err = run(t, "", "tags", "list", "--synonyms")
	require.NoError(t, err)
	assert.Contains(t, out, "devops: ci, cd")
}

const validCard = `{
  "title": "Channels",
  "description": "Unbuffered vs buffered",
  "card_type": "code",
  "content_type": "code",
  "screens": [{"name": "Main", "blocks": [{"type": "code", "content": "ch := make(chan int)", "order": 0}]}]
}`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantLines []string
	}{
		{"valid object", validCard, false, []string{"ok"}},
		{"valid array", "[" + validCard + "," + validCard + "]", false, []string{"ok"}},
		{"missing title", `{"description": "d", "card_type": "code", "content_type": "code", "screens": []}`, true,
			[]string{"title: "}},
		{"array element index", "[" + validCard + `, {"title": "x"}]`, true,
			[]string{"[1].description: "}},
		{"malformed", `{"title":`, true, []string{"body: "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", "validate", writeTemp(t, tt.body))

			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidDocument)
			} else {
				require.NoError(t, err)
			}
			for _, line := range tt.wantLines {
				assert.Contains(t, out, line)
			}
		})
	}
}

func TestValidate_JSONFromStdin(t *testing.T) {
	out, err := run(t, `{"title": ""}`, "validate", "--json", "-")

	require.Error(t, err)
	var res validate.Result
	require.NoError(t, json.Unmarshal([]byte(out[:strings.LastIndex(out, "}")+1]), &res))
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CONFIG_FILE", "")

	var got struct {
		port   int
		format string
		level  string
	}
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			got.port, got.format, got.level = cfg.Port, cfg.Log.Format, cfg.Log.Level
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.envFile, "env-file", filepath.Join(t.TempDir(), ".env"), "")
	cmd.Flags().IntVar(&flags.port, "port", 0, "")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "")
	cmd.Flags().StringVar(&flags.dbDriver, "db-driver", "", "")
	cmd.Flags().StringVar(&flags.dbDSN, "db-dsn", "", "")
	cmd.SetArgs([]string{"--port", "9001"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 9001, got.port, "flag beats env")
	assert.Equal(t, "json", got.format, "env kept when the flag is not passed")
	assert.Equal(t, "info", got.level)
}
