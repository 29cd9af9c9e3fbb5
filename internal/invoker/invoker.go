// Package invoker builds the java command line that starts the game and
// persists it per instance as sml_invoker.json.
//
// Game arguments are stored with the session placeholders
// (${auth_player_name}, ${auth_uuid}, ${auth_access_token}) left in place;
// they are filled from the invocation's user fields at launch, so logging in
// again only has to rewrite those fields.
package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/manifest"
)

const FileName = "sml_invoker.json"

// Substitute replaces ${key} placeholders in s with values[key]. Unknown
// placeholders are left untouched.
func Substitute(s string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "${"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// GameArgs collects the game arguments for a launch. Pre-1.13 versions use
// the minecraftArguments template of the last manifest that has one; newer
// versions concatenate arguments.game of every manifest and append the
// directory flags. values are substituted into every argument.
func GameArgs(manifests []*manifest.Version, legacy bool, values map[string]string) []string {
	var args []string

	if legacy {
		var template string
		for _, m := range manifests {
			if m.MinecraftArguments != "" {
				template = m.MinecraftArguments
			}
		}
		args = strings.Fields(template)
	} else {
		for _, m := range manifests {
			args = append(args, m.GameArguments()...)
		}
		args = appendMissing(args,
			"--assetsDir", "${assets_root}",
			"--assetIndex", "${assets_index_name}",
			"--gameDir", "${game_directory}",
			"--version", "${version_name}",
			"--versionType", "${version_type}",
			"--userType", "${user_type}",
		)
	}

	for i, a := range args {
		args[i] = Substitute(a, values)
	}
	return args
}

// appendMissing appends flag/value pairs whose flag is not already present.
func appendMissing(args []string, pairs ...string) []string {
	present := make(map[string]bool, len(args))
	for _, a := range args {
		present[a] = true
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if !present[pairs[i]] {
			args = append(args, pairs[i], pairs[i+1])
		}
	}
	return args
}

func sessionValues(inv *domain.Invocation) map[string]string {
	return map[string]string{
		"auth_player_name":  inv.UserName,
		"auth_uuid":         inv.UserID,
		"auth_access_token": inv.AuthToken,
	}
}

// WithUser returns a copy of inv bound to u's session.
func WithUser(inv domain.Invocation, u *domain.User) domain.Invocation {
	inv.UserName = u.Name
	inv.AuthToken = u.Token
	inv.UserID = u.ID
	return inv
}

// Command returns argv for inv:
// java -Djava.library.path=<bin> [custom args] -cp <classpath> <main> <game args>.
func Command(inv *domain.Invocation) []string {
	argv := []string{inv.Java, "-Djava.library.path=" + inv.BinPath}
	argv = append(argv, inv.CustomArgs...)
	argv = append(argv, "-cp", strings.Join(inv.Classpath, string(os.PathListSeparator)), inv.MainClass)

	session := sessionValues(inv)
	for _, a := range inv.GameArgs {
		argv = append(argv, Substitute(a, session))
	}
	return argv
}

// String renders the command for display with the access token masked.
func String(inv *domain.Invocation) string {
	masked := *inv
	if masked.AuthToken != "" {
		masked.AuthToken = "********"
	}

	argv := Command(&masked)
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			argv[i] = strconv.Quote(a)
		}
	}
	return strings.Join(argv, " ")
}

func Save(path string, inv *domain.Invocation) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func Load(path string) (*domain.Invocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading invoker: %w", err)
	}

	var inv domain.Invocation
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &inv, nil
}

// Launch runs the game in dir and waits for it to exit.
func Launch(ctx context.Context, inv *domain.Invocation, dir string, stdout, stderr io.Writer) error {
	if inv.AuthToken == "" {
		return domain.ErrNotAuthenticated
	}

	argv := Command(inv)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}
