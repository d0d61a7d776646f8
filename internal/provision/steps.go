package provision

// Step names, also used as journal keys.
const (
	StepPreflight  = "preflight"
	StepPackages   = "packages"
	StepDocker     = "docker"
	StepBaseUtils  = "base-utils"
	StepIdentity   = "identity"
	StepUser       = "user"
	StepSSHKeys    = "ssh-keys"
	StepSSHD       = "sshd"
	StepFirewall   = "firewall"
	StepProfile    = "profile"
	StepMOTD       = "motd"
	StepCompletion = "completion"
)

// DefaultSteps is the full provisioning sequence in execution order.
func DefaultSteps() []Step {
	return []Step{
		{Name: StepPreflight, Label: "Checking privileges", Critical: true, Apply: preflight},
		{Name: StepPackages, Label: "Updating and upgrading packages", Critical: true, Apply: upgradePackages},
		{Name: StepDocker, Label: "Installing Docker", Critical: true, Apply: installDocker},
		{Name: StepBaseUtils, Label: "Installing base utilities", Critical: true, Apply: installBaseUtils},
		{Name: StepIdentity, Label: "Configuring hostname and timezone", Critical: true, Apply: configureIdentity},
		{Name: StepUser, Label: "Provisioning admin user", Critical: true, Apply: provisionUser},
		{Name: StepSSHKeys, Label: "Installing SSH keys", Critical: true, Apply: installSSHKeys},
		{Name: StepSSHD, Label: "Hardening SSH daemon", Critical: true, Apply: hardenSSHD},
		{Name: StepFirewall, Label: "Configuring firewall", Critical: true, Apply: configureFirewall},
		{Name: StepProfile, Label: "Configuring shell profile", Critical: true, Apply: configureProfile},
		{Name: StepMOTD, Label: "Configuring login banner", Critical: true, Apply: configureMOTD},
		{Name: StepCompletion, Label: "Finishing", Critical: false, Apply: complete},
	}
}

// Lookup returns the named step from DefaultSteps.
func Lookup(name string) (Step, bool) {
	for _, s := range DefaultSteps() {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}
