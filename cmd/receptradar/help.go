package main

import (
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	helpHeaderStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	helpCmdStyle    = lipgloss.NewStyle().Foreground(colorPrimaryLight)
)

var helpTemplateFuncs = template.FuncMap{
	"header": func(s string) string { return styled(helpHeaderStyle, s) },
	"cmd":    func(s string) string { return styled(helpCmdStyle, s) },
	"muted":  func(s string) string { return styled(mutedStyle, s) },
}

const helpTemplate = `{{with .Long}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{header "Usage:"}}
  {{cmd .UseLine}}{{if .HasAvailableSubCommands}} {{muted "[command]"}}{{end}}

{{end}}{{if .HasExample}}{{header "Examples:"}}
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}{{header "Commands:"}}
{{range .Commands}}{{if .IsAvailableCommand}}  {{cmd (rpad .Name .NamePadding)}} {{.Short}}
{{end}}{{end}}
{{end}}{{if .HasAvailableLocalFlags}}{{header "Flags:"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}{{header "Global Flags:"}}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}{{muted "Use"}} {{cmd (printf "%s [command] --help" .CommandPath)}} {{muted "for more information."}}
{{end}}`

// initHelp installs the styled help template on cmd and its subcommands.
func initHelp(cmd *cobra.Command) {
	for name, fn := range helpTemplateFuncs {
		cobra.AddTemplateFunc(name, fn)
	}
	applyHelpTemplate(cmd)
}

func applyHelpTemplate(cmd *cobra.Command) {
	cmd.SetHelpTemplate(helpTemplate)
	for _, sub := range cmd.Commands() {
		applyHelpTemplate(sub)
	}
}
