package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/plasticdigits/worksplit/pkg/config"
)

var initForce bool

const defaultCreatePrompt = `You are generating a complete file from scratch. Follow the instructions below exactly and reply with a single fenced code block containing the file's full contents.`

const defaultVerifyPrompt = `You are reviewing generated code against its instructions. Reply with "Pass" if it fully satisfies them, or "FailSoft <reason>"/"FailHard <reason>" otherwise. Either failure gets one retry with your reason as feedback.`

const defaultEditPrompt = `You are editing existing files. Reply using FILE:/FIND:/REPLACE:/END blocks, one per change, following the instructions below exactly.`

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a jobs directory with the standard system prompts and a default worksplit.toml",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
	cmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite files that already exist")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(jobsDir, 0755); err != nil {
		return err
	}

	prompts := map[string]string{
		"_systemprompt_create.md": defaultCreatePrompt,
		"_systemprompt_verify.md": defaultVerifyPrompt,
		"_systemprompt_edit.md":   defaultEditPrompt,
	}
	for name, content := range prompts {
		if err := writeIfAbsentOrForced(filepath.Join(jobsDir, name), content); err != nil {
			return err
		}
	}

	tomlPath := configPath
	if tomlPath == "" {
		tomlPath = filepath.Join(filepath.Dir(jobsDir), "worksplit.toml")
	}
	if err := writeDefaultConfig(tomlPath); err != nil {
		return err
	}

	fmt.Printf("initialized jobs directory %s and config %s\n", jobsDir, tomlPath)
	return nil
}

func writeIfAbsentOrForced(path, content string) error {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func writeDefaultConfig(path string) error {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(config.Default())
}
