package cli

// legacyFlags maps the single-dash spellings of the classic sqllogictest
// command line to their flag names. -odbc took an ODBC connection string;
// it is kept as a connection string for the selected engine.
var legacyFlags = map[string]string{
	"-verify":     "--verify",
	"-engine":     "--engine",
	"-connection": "--connection",
	"-odbc":       "--connection",
}

// NormalizeArgs rewrites legacy single-dash flags so that scripts and
// makefiles written for the classic tool keep working. Arguments after
// "--" are left alone.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if long, ok := legacyFlags[arg]; ok {
			out = append(out, long)
			continue
		}
		out = append(out, arg)
	}
	return out
}
