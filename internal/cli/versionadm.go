package cli

var versionAdmJSON bool

func init() {
	rootAdmCmd.AddCommand(newVersionCmd("pomokanadm", []string{
		"init", "migrate", "state", "merge", "doctor", "version",
	}, &versionAdmJSON))
}
