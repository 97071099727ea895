// cmd/matchctl/registry.go
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"brokerage-matchmaking/pkg/registry"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and edit the worker activity registry",
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := openRegistry(registryPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, a := range reg.Activities {
			fmt.Fprintf(out, "%-28s %-12s %-8s %s\n", a.TaskType, a.ImplementationStatus, a.Timeout, a.DisplayName)
		}
		return nil
	},
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := openRegistry(registryPath)
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var addFlags struct {
	id, displayName, description, category, taskType, version, status string
}

var registryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new activity to the registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if errors.Is(err, os.ErrNotExist) {
			reg = &registry.ActivityRegistry{Version: "1.0.0"}
		} else if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}

		err = addActivity(reg, registry.Activity{
			ID:                   addFlags.id,
			DisplayName:          addFlags.displayName,
			Description:          addFlags.description,
			Category:             addFlags.category,
			Version:              addFlags.version,
			TaskType:             addFlags.taskType,
			ImplementationStatus: addFlags.status,
			InputSchema:          map[string]interface{}{},
			OutputSchema:         map[string]interface{}{},
			ErrorCodes:           []string{},
			Timeout:              "10s",
			Workflows:            []string{},
			Tags:                 []string{},
		})
		if err != nil {
			return err
		}
		if err := registry.SaveRegistry(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", addFlags.id)
		return nil
	},
}

var updateFlags struct {
	id, field, value string
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a field of an existing activity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := updateActivity(reg, updateFlags.id, updateFlags.field, updateFlags.value); err != nil {
			return err
		}
		if err := registry.SaveRegistry(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", updateFlags.id, updateFlags.field, updateFlags.value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryListCmd, registryValidateCmd, registryAddCmd, registryUpdateCmd)

	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "", "registry file (default is the built-in registry)")

	f := registryAddCmd.Flags()
	f.StringVar(&addFlags.id, "id", "", "activity id (e.g. generate-matches)")
	f.StringVar(&addFlags.displayName, "display-name", "", "display name")
	f.StringVar(&addFlags.description, "description", "", "description")
	f.StringVar(&addFlags.category, "category", "matchmaking", "category")
	f.StringVar(&addFlags.taskType, "task-type", "", "Zeebe job type")
	f.StringVar(&addFlags.version, "version", "1.0.0", "activity version")
	f.StringVar(&addFlags.status, "status", "planned", "planned, in-progress, completed or verified")
	for _, name := range []string{"id", "display-name", "task-type"} {
		_ = registryAddCmd.MarkFlagRequired(name)
	}

	u := registryUpdateCmd.Flags()
	u.StringVar(&updateFlags.id, "id", "", "activity id to update")
	u.StringVar(&updateFlags.field, "field", "", "status, version, displayName, description, category, taskType, timeout or retries")
	u.StringVar(&updateFlags.value, "value", "", "new value")
	for _, name := range []string{"id", "field", "value"} {
		_ = registryUpdateCmd.MarkFlagRequired(name)
	}

	// add and update write to a file, so they need one.
	for _, c := range []*cobra.Command{registryAddCmd, registryUpdateCmd} {
		c.PreRunE = func(cmd *cobra.Command, _ []string) error {
			if registryPath == "" {
				return errors.New("--path is required")
			}
			return nil
		}
	}
}

// openRegistry reads path, or the built-in registry when path is empty.
func openRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}

func addActivity(reg *registry.ActivityRegistry, a registry.Activity) error {
	for _, existing := range reg.Activities {
		if existing.ID == a.ID {
			return fmt.Errorf("activity with ID %s already exists", a.ID)
		}
		if existing.TaskType == a.TaskType {
			return fmt.Errorf("task type %s is already registered by %s", a.TaskType, existing.ID)
		}
	}
	reg.Activities = append(reg.Activities, a)
	return nil
}

func updateActivity(reg *registry.ActivityRegistry, id, field, value string) error {
	var a *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			a = &reg.Activities[i]
			break
		}
	}
	if a == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		if !registry.ValidStatus(value) {
			return fmt.Errorf("invalid status %q", value)
		}
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		if _, err := (registry.Activity{Timeout: value}).TimeoutDuration(); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}
