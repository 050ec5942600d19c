package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gitlab.com/dirk.krummacker/contacts-api/pkg/model"
	"gopkg.in/yaml.v3"
)

// printContacts writes the contacts as a table, a JSON array or a YAML sequence.
func printContacts(w io.Writer, format string, contacts []model.Contact) error {
	if contacts == nil {
		contacts = []model.Contact{}
	}
	switch format {
	case "json":
		return printJSON(w, contacts)
	case "yaml":
		return printYAML(w, contacts)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tFAVORITE")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", c.Id, c.Name, c.Email, c.Phone, c.Favorite)
	}
	return tw.Flush()
}

// printContact writes a single contact.
func printContact(w io.Writer, format string, contact model.Contact) error {
	switch format {
	case "json":
		return printJSON(w, contact)
	case "yaml":
		return printYAML(w, contact)
	}
	return printContacts(w, format, []model.Contact{contact})
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	return encoder.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
