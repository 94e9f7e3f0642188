package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/gpg"
	"github.com/gid-sh/gid/internal/prompt"
	"github.com/gid-sh/gid/internal/ssh"
	"github.com/gid-sh/gid/internal/style"
)

var addCmd = &cobra.Command{
	Use:     "add",
	GroupID: GroupIdentity,
	Short:   "Add a new identity",
	Long: `Create a new identity in the configuration.

Fields not supplied as flags are prompted for when stdin is a terminal;
in scripts, missing required fields are an error. Supplying --gpg-key
turns on commit signing for the identity.

Examples:
  gid add --id work --name "Alice Smith" --email alice@corp.example
  gid add --id oss --name "Alice" --email alice@oss.example \
      --ssh-key ~/.ssh/id_oss --description "open source work"`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var (
	addID          string
	addName        string
	addEmail       string
	addDescription string
	addSSHKey      string
	addGPGKey      string
)

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addID, "id", "", "Unique identity id (letters, digits, _ and -)")
	addCmd.Flags().StringVar(&addName, "name", "", "Git user.name value")
	addCmd.Flags().StringVar(&addEmail, "email", "", "Git user.email value")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Free-form description")
	addCmd.Flags().StringVar(&addSSHKey, "ssh-key", "", "Path to the SSH private key")
	addCmd.Flags().StringVar(&addGPGKey, "gpg-key", "", "GPG signing key id (enables commit signing)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	store, cfg, err := loadStore()
	if err != nil {
		return err
	}

	p := prompt.New()
	id := config.Identity{
		ID:          askIfEmpty(p, addID, "Identity id"),
		Name:        askIfEmpty(p, addName, "Name"),
		Email:       askIfEmpty(p, addEmail, "Email"),
		Description: addDescription,
		SSHKey:      addSSHKey,
		GPGKey:      addGPGKey,
		GPGSign:     addGPGKey != "",
	}

	if id.SSHKey != "" {
		if err := ensureSSHKey(p, id); err != nil {
			return err
		}
	}
	if id.GPGKey != "" {
		warnMissingGPGKey(gpg.CLI{}, id.GPGKey)
	}

	if err := cfg.AddIdentity(id); err != nil {
		return err
	}
	if err := store.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("%s Added identity %s %s <%s>\n", style.SuccessPrefix, style.ID(id.ID), id.Name, id.Email)
	if id.GPGKey != "" {
		fmt.Printf("  Commit signing enabled with key %s\n", style.Accent.Render(id.GPGKey))
	}
	return nil
}

func askIfEmpty(p *prompt.Prompter, value, label string) string {
	if value != "" {
		return value
	}
	return p.Input(label, "")
}

// ensureSSHKey offers to generate a missing key pair so validation can
// succeed. In scripts the prompt resolves to no and validation reports
// the missing file.
func ensureSSHKey(p *prompt.Prompter, id config.Identity) error {
	mgr, err := ssh.NewManager()
	if err != nil || mgr.KeyExists(id.SSHKey) {
		return nil
	}
	if !p.Confirm(fmt.Sprintf("SSH key %s does not exist. Generate it?", id.SSHKey), false) {
		return nil
	}
	if err := mgr.GenerateKey(id.SSHKey, id.Email); err != nil {
		return err
	}
	fmt.Printf("%s Generated SSH key %s\n", style.SuccessPrefix, id.SSHKey)
	fmt.Printf("  %s\n", style.Dim.Render("Remember to upload the public key to your forge."))
	return nil
}

// warnMissingGPGKey checks the keyring for the signing key. Absence of
// the gpg binary or the key is a warning, not an error, so identities
// can be prepared on machines without the key material.
func warnMissingGPGKey(store gpg.SigningKeyStore, keyID string) {
	found, err := gpg.HasKey(store, keyID)
	if err != nil {
		fmt.Printf("%s could not check gpg keyring: %v\n", style.WarningPrefix, err)
		return
	}
	if !found {
		fmt.Printf("%s gpg key %s not found in the local keyring\n", style.WarningPrefix, keyID)
	}
}
