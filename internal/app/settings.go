package app

import (
	"context"
	"errors"
	"io"

	"github.com/aicanalytics/gptmenu/settings"
)

// editSettings shows the settings tree and changes one field per round.
// A blank field choice returns to the main menu.
func (a *App) editSettings(context.Context) error {
	st := a.session.Settings()
	for {
		a.console.Println("\nSettings:")
		for _, line := range st.Lines() {
			a.console.Println(line)
		}

		name, err := a.console.Prompt("\nEnter the setting to change (blank to go back): ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if name == "" {
			return nil
		}

		field, ok := settings.FieldByName(name)
		if !ok {
			a.console.Printf("Unknown setting %q. Please try again.\n", name)
			continue
		}
		if field.Kind == settings.KindModel {
			for i, label := range st.Table().Labels() {
				a.console.Printf("   %d. %s\n", i+1, label)
			}
		}

		current, _ := st.Get(field.Key)
		raw, err := a.console.Prompt("Enter the new value for " + field.Label + " [" + current + "]: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if raw == "" {
			continue
		}

		if err := st.Set(field.Key, raw); err != nil {
			a.console.Printf("Invalid value, keeping %s: %v\n", current, err)
			continue
		}
		updated, _ := st.Get(field.Key)
		a.logger.Info("Setting changed", "field", field.Key, "from", current, "to", updated)
		a.console.Printf("%s set to %s\n", field.Label, updated)
	}
}
