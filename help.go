package ifexists

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
)

// HelpFormat is the format of the help printed by PrintHelp.
type HelpFormat int

const (
	HelpFormatText     HelpFormat = iota // plain text
	HelpFormatMarkdown                   // markdown
)

// HelpTopicConfig is the help topic documenting the configuration file.
const HelpTopicConfig = "config"

// PrintHelp prints the help of a topic in the given format. topic is either
// "config", for the tables of the configuration file, the name of one of the
// metrics clients listed in comp, or '*' to print everything.
//
// Help output example:
//
//	$ ifexists describe datadog
//
//	=============================================
//	Metrics: Datadog
//	=============================================
//	Set name = "Datadog" in the [metrics] table to select this metrics client.
//
//	Keys available in the [metrics.config] section:
//
//	Name               | Type               | Default            | Required | Help
//	----------------------------------------------------------------------------------------------------
//	prefix             | string             | "ifexists."        | false    | Prefix of all metric names
//	...
func PrintHelp(w io.Writer, topic string, comp Components, format HelpFormat) error {
	dumpall := topic == "*"

	var docs []sectionDoc
	if dumpall || strings.EqualFold(topic, HelpTopicConfig) {
		cdocs, err := configDocs()
		if err != nil {
			return err
		}
		docs = append(docs, cdocs...)
	}
	for _, desc := range comp.Metrics {
		if dumpall || strings.EqualFold(desc.Name, topic) {
			doc, err := newMetricsDoc(desc)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return fmt.Errorf("no help for %q: use %q, the name of a metrics client or '*'", topic, HelpTopicConfig)
	}

	for _, doc := range docs {
		switch format {
		case HelpFormatMarkdown:
			genMarkdown(w, doc)
		default:
			genText(w, doc)
		}
	}
	return nil
}

// RenderHelpMarkdown prints markdown formatted help for a topic (see
// PrintHelp), and renders it so that it can be printed on a terminal.
func RenderHelpMarkdown(w io.Writer, topic string, comp Components) error {
	r, err := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width
		glamour.WithWordWrap(int(terminalWidth())),
	)
	if err != nil {
		return err
	}

	if err := PrintHelp(r, topic, comp, HelpFormatMarkdown); err != nil {
		return err
	}

	if err := r.Close(); err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

const (
	helpTextHdrSfmt = "%-18s | %-18s | %-18s | %-8s | "
	helpTextSep     = "----------------------------------------------------------------------------------------------------"
)

func genText(w io.Writer, doc sectionDoc) {
	fmt.Fprintf(w, "=============================================\n")
	fmt.Fprintf(w, "%s\n", doc.title)
	fmt.Fprintf(w, "=============================================\n")
	fmt.Fprintln(w, doc.help)

	if len(doc.keys) == 0 {
		fmt.Fprintf(w, "\n(no configuration available)\n\n")
	} else {
		fmt.Fprintf(w, "\nKeys available in the [%s] section:\n\n", doc.table)
		genConfigKeysText(w, doc.keys)
	}

	fmt.Fprintln(w)
}

func genConfigKeysText(w io.Writer, keys []helpConfigKey) {
	hpad := fmt.Sprintf(helpTextHdrSfmt, "", "", "", "")

	fmt.Fprintf(w, helpTextHdrSfmt, "Name", "Type", "Default", "Required")
	fmt.Fprintf(w, "Help\n%s\n", helpTextSep)

	for _, k := range keys {
		fmt.Fprintf(w, helpTextHdrSfmt, k.name, k.typ, k.def, fmt.Sprintf("%t", k.required))
		helpLines := strings.Split(wordwrap.String(k.desc, 60), "\n")
		fmt.Fprint(w, helpLines[0], "\n")
		for _, h := range helpLines[1:] {
			fmt.Fprint(w, hpad, h, "\n")
		}
	}

	fmt.Fprint(w, helpTextSep, "\n")
}

func breakAfterDots(s string) string {
	r := strings.NewReplacer(
		". ", ".  \n",
		"! ", "!  \n",
		"? ", "?  \n",
	)
	return r.Replace(s)
}

func genMarkdown(w io.Writer, doc sectionDoc) {
	fmt.Fprintf(w, "## %s\n", doc.title)
	fmt.Fprintln(w)
	fmt.Fprintln(w, breakAfterDots(doc.help))
	fmt.Fprintln(w)
	if len(doc.keys) == 0 {
		fmt.Fprintf(w, "No configuration available\n\n")
	} else {
		fmt.Fprintf(w, "Keys available in the `[%s]` section:\n\n", doc.table)
		genConfigKeysMarkdown(w, doc.keys)
	}
}

func genConfigKeysMarkdown(w io.Writer, keys []helpConfigKey) {
	fmt.Fprintln(w, "|Name|Type|Default|Required|Description|")
	fmt.Fprintln(w, "|----|:--:|:-----:|:------:|-----------|")
	for _, k := range keys {
		fmt.Fprintf(w, "| %v| %v| %v| %t| %v|\n", k.name, k.typ, k.def, k.required, k.desc)
	}
	fmt.Fprintln(w)
}
