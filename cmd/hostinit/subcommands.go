package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/3cpo-dev/hostinit/internal/core"
	"github.com/3cpo-dev/hostinit/internal/prompt"
	"github.com/3cpo-dev/hostinit/internal/provision"
	"github.com/3cpo-dev/hostinit/internal/render"
	gssh "github.com/3cpo-dev/hostinit/internal/ssh"
	"github.com/3cpo-dev/hostinit/internal/target"
	"github.com/3cpo-dev/hostinit/internal/target/local"
	"github.com/3cpo-dev/hostinit/internal/target/remote"
)

// Resolve the target registry
func newRegistry() *target.Registry {
	reg := target.NewRegistry()
	reg.Register(target.KindLocal, local.Open)
	reg.Register(target.KindSSH, remote.Open)
	return reg
}

// Load the config file and apply target flags on top of it.
func loadConfig(cmd *cobra.Command) (core.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := core.LoadConfig(cfgPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Lookup("host") == nil {
		return cfg, nil
	}
	if v, _ := flags.GetString("host"); v != "" {
		cfg.Target.Host = v
		if !flags.Changed("target") {
			cfg.Target.Kind = target.KindSSH
		}
	}
	if flags.Changed("target") {
		cfg.Target.Kind, _ = flags.GetString("target")
	}
	if flags.Changed("port") {
		cfg.Target.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("user") {
		cfg.Target.User, _ = flags.GetString("user")
	}
	if flags.Changed("identity") {
		cfg.Target.Identity, _ = flags.GetString("identity")
	}
	if flags.Changed("accept-new-host-key") {
		cfg.Target.AcceptNewHostKey, _ = flags.GetBool("accept-new-host-key")
	}
	return cfg, cfg.Validate()
}

func addTargetFlags(cmd *cobra.Command) {
	kinds := strings.Join(newRegistry().Kinds(), " or ")
	cmd.Flags().String("target", target.KindLocal, "target kind: "+kinds)
	cmd.Flags().String("host", "", "host to provision over SSH (implies --target ssh)")
	cmd.Flags().Int("port", 22, "SSH port of the target")
	cmd.Flags().String("user", "root", "SSH login user on the target")
	cmd.Flags().String("identity", "", "private key for the SSH login")
	cmd.Flags().Bool("accept-new-host-key", false, "trust and record the host key of a host not yet in known_hosts")
}

// Open the journal. A journal that cannot be opened only disables history.
func openStore(cfg core.Config) *core.Store {
	if cfg.Journal.Disabled {
		return nil
	}
	s, err := core.NewStore(cfg.Journal.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Journal.Path).Msg("journal unavailable")
		return nil
	}
	return s
}

// Pick the answer source: prompts on a terminal, the config file otherwise.
func answerSource(cmd *cobra.Command, cfg core.Config) prompt.Source {
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
	tty := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if nonInteractive || !tty {
		log.Debug().Bool("tty", tty).Msg("using answers from config")
		return prompt.NewStatic(cfg.Answers)
	}
	return prompt.NewInteractive(cfg.Answers, os.Getenv("ACCESSIBLE") != "")
}

// Provision the target
func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Provision and harden the target host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store := openStore(cfg)
			if store != nil {
				defer store.Close()
			}
			h := core.NewHostinit(cfg, newRegistry(), store)

			skip, _ := cmd.Flags().GetStringSlice("skip")
			steps, err := selectSteps(skip)
			if err != nil {
				return err
			}
			opts := core.ApplyOptions{Source: answerSource(cmd, cfg), Out: cmd.OutOrStdout(), Steps: steps}
			if zerolog.GlobalLevel() <= zerolog.DebugLevel {
				opts.Stream = cmd.ErrOrStderr()
			}
			rep, err := h.Apply(cmd.Context(), opts)
			if rep.Target != "" {
				printReport(cmd.OutOrStdout(), rep, err)
				n, failed, total := h.GetMetrics()
				printSummary(cmd.OutOrStdout(), n, failed, total)
			}
			return err
		},
	}
	addTargetFlags(cmd)
	cmd.Flags().Bool("non-interactive", false, "never prompt; take every answer from the config file")
	cmd.Flags().StringSlice("skip", nil, "steps to leave out, e.g. --skip docker,motd")
	return cmd
}

// selectSteps drops the named steps from the default list. A nil result
// means the default list.
func selectSteps(skip []string) ([]provision.Step, error) {
	if len(skip) == 0 {
		return nil, nil
	}
	drop := make(map[string]bool, len(skip))
	for _, name := range skip {
		if _, ok := provision.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown step %q", name)
		}
		drop[name] = true
	}
	steps := make([]provision.Step, 0, len(provision.DefaultSteps()))
	for _, s := range provision.DefaultSteps() {
		if !drop[s.Name] {
			steps = append(steps, s)
		}
	}
	return steps, nil
}

// Audit the target
func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the host still matches the provisioned state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			username, _ := cmd.Flags().GetString("admin")
			h := core.NewHostinit(cfg, newRegistry(), nil)
			checks, err := h.Verify(cmd.Context(), username)
			if err != nil {
				return err
			}
			name := cfg.Target.Kind
			if cfg.Target.Host != "" {
				name += ":" + cfg.Target.Host
			}
			printChecks(cmd.OutOrStdout(), name, checks)
			if len(provision.Failed(checks)) > 0 {
				return errDrift
			}
			return nil
		},
	}
	addTargetFlags(cmd)
	cmd.Flags().String("admin", "", "provisioned admin user (default from config, else admin)")
	return cmd
}

// Print a rendered file
func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "render <sshd|bashrc|motd|sudoers>",
		Short:     "Print a file exactly as apply would install it",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"sshd", "bashrc", "motd", "sudoers"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			username, _ := cmd.Flags().GetString("user")
			if username == "" {
				username = cfg.Answers.Username
			}
			if username == "" {
				username = "admin"
			}
			if err := prompt.ValidateUsername(username); err != nil {
				return err
			}
			var f render.File
			switch args[0] {
			case "sshd":
				f, err = render.SSHDConfig(render.SSHDParams{Port: cfg.SSHD.Port, AllowUsers: username})
			case "bashrc":
				f = render.Bashrc(filepath.Join("/home", username), username, username)
			case "motd":
				f = render.MOTDHeader()
			case "sudoers":
				f, err = render.Sudoers(username)
			}
			if err != nil {
				return err
			}
			log.Debug().Str("path", f.Path).Str("mode", fmt.Sprintf("%#o", f.Mode)).Msg("rendered")
			_, err = cmd.OutOrStdout().Write(f.Content)
			return err
		},
	}
	cmd.Flags().String("user", "", "admin user the file is rendered for")
	return cmd
}

// Emit cloud-init user-data
func newCloudInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cloudinit",
		Short: "Print a #cloud-config document that provisions a new host the same way",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			doc, err := provision.CloudConfig(cfg.Answers, cfg.Settings())
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			}
			if err := os.WriteFile(out, doc, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			log.Info().Str("path", out).Msg("cloud-config written")
			return nil
		},
	}
	cmd.Flags().String("out", "", "write to file instead of stdout")
	return cmd
}

// Show journaled runs
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs and their step results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Journal.Disabled {
				return fmt.Errorf("journal is disabled in the config")
			}
			store, err := core.NewStore(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			limit, _ := cmd.Flags().GetInt("limit")
			runs, steps, err := core.NewHostinit(cfg, newRegistry(), store).History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), runs, steps)
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "number of runs to show")
	return cmd
}

// Generate an operator key pair
func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 key pair for SSH access to provisioned hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				out = cfg.Target.Identity
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(out); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", out)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o700); err != nil {
				return fmt.Errorf("create key dir: %w", err)
			}
			comment, _ := cmd.Flags().GetString("comment")
			pub, err := gssh.GenerateEd25519Keypair(out, comment)
			if err != nil {
				return err
			}
			log.Info().Str("private", out).Str("public", out+".pub").Msg("key pair written")
			fmt.Fprintln(cmd.OutOrStdout(), pub)
			return nil
		},
	}
	cmd.Flags().String("out", "", "private key path (default: identity from config)")
	cmd.Flags().String("comment", "hostinit", "public key comment")
	cmd.Flags().Bool("force", false, "overwrite an existing key")
	return cmd
}

// Generate shell completion scripts
func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion script",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}
