package builder

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Preview renders tree as a cobra command hierarchy under a root command
// named rootName, so the help output of the CLI to be generated can be
// browsed. Running a leaf command prints the request it would send and
// executes nothing.
func Preview(tree *Tree, rootName, description string) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           rootName,
		Short:         description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, group := range tree.Groups {
		short := group.Description
		if short == "" {
			short = fmt.Sprintf("%s operations", strings.Join(group.Tags, ", "))
		}
		groupCmd := &cobra.Command{
			Use:   group.Name,
			Short: short,
		}
		for _, c := range group.Commands {
			cmd, err := previewCommand(c)
			if err != nil {
				return nil, fmt.Errorf("failed to build command %s %s: %w", group.Name, c.Name, err)
			}
			groupCmd.AddCommand(cmd)
		}
		root.AddCommand(groupCmd)
	}
	return root, nil
}

func previewCommand(c *Command) (*cobra.Command, error) {
	use := c.Name
	for _, a := range c.Arguments {
		use += " <" + a.Name + ">"
	}

	cmd := &cobra.Command{
		Use:     use,
		Short:   c.Summary,
		Long:    c.Description,
		Args:    cobra.ExactArgs(len(c.Arguments)),
		Aliases: c.Aliases,
		Hidden:  c.Hidden,
		Annotations: map[string]string{
			"operationID": c.OperationID,
			"method":      c.Method,
			"path":        c.Path,
		},
	}
	if c.Deprecated {
		cmd.Deprecated = "the API marks this operation as deprecated"
	}

	for _, opt := range c.Options {
		if err := addFlag(cmd, opt); err != nil {
			return nil, err
		}
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := ValidateEnumFlags(cmd); err != nil {
			return err
		}
		return DescribeRequest(cmd.OutOrStdout(), c, args, RequestValues(cmd))
	}
	return cmd, nil
}

// DescribeRequest writes the request c would send for the given positional
// arguments and option values.
func DescribeRequest(w io.Writer, c *Command, args []string, values map[Source]map[string]any) error {
	path := c.Path
	for i, a := range c.Arguments {
		if i < len(args) {
			path = strings.ReplaceAll(path, "{"+a.Param+"}", url.PathEscape(args[i]))
		}
	}

	if query := values[SourceQuery]; len(query) > 0 {
		q := url.Values{}
		for k, v := range query {
			if list, ok := v.([]string); ok {
				for _, item := range list {
					q.Add(k, item)
				}
				continue
			}
			q.Set(k, fmt.Sprintf("%v", v))
		}
		path += "?" + q.Encode()
	}

	if _, err := fmt.Fprintf(w, "%s %s\n", c.Method, path); err != nil {
		return err
	}

	for _, src := range []Source{SourceHeader, SourceCookie} {
		for _, k := range sortedAnyKeys(values[src]) {
			if _, err := fmt.Fprintf(w, "%s %s: %v\n", src, k, values[src][k]); err != nil {
				return err
			}
		}
	}

	if body := values[SourceBody]; len(body) > 0 {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		if _, err := fmt.Fprintf(w, "body (%s): %s\n", c.BodyContentType, data); err != nil {
			return err
		}
	}
	return nil
}

// GetCommandByOperationID finds the preview command of an operation.
func GetCommandByOperationID(root *cobra.Command, operationID string) *cobra.Command {
	return findCommandByAnnotation(root, "operationID", operationID)
}

func findCommandByAnnotation(cmd *cobra.Command, key, value string) *cobra.Command {
	if v, ok := cmd.Annotations[key]; ok && v == value {
		return cmd
	}
	for _, sub := range cmd.Commands() {
		if found := findCommandByAnnotation(sub, key, value); found != nil {
			return found
		}
	}
	return nil
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
