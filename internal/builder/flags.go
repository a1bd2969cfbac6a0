package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cliwizard/cliwizard/pkg/naming"
	"github.com/cliwizard/cliwizard/pkg/openapi"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// buildArguments turns the path parameters of op into positional arguments.
func buildArguments(op *openapi.Operation) []Argument {
	params := op.PathParameters()
	args := make([]Argument, 0, len(params))
	for _, p := range params {
		args = append(args, Argument{
			Name:        toFlagName(p.Name),
			VarName:     naming.Snake(p.Name),
			Param:       p.Name,
			Type:        p.Type,
			Description: p.Description,
		})
	}
	return args
}

// buildOptions turns query, header and cookie parameters and request body
// properties into options. An option whose flag name is already taken is
// prefixed with its location ("query-id", "body-name").
func buildOptions(op *openapi.Operation, args []Argument) []Option {
	taken := make(map[string]bool)
	for _, a := range args {
		taken[a.Name] = true
	}

	var opts []Option
	for _, p := range op.Parameters {
		if p.In == openapi.InPath {
			continue
		}
		name, varName := claim(taken, p.Name, string(p.In))
		opts = append(opts, Option{
			Name:        name,
			VarName:     varName,
			Param:       p.Name,
			Source:      Source(p.In),
			Type:        p.Type,
			Format:      p.Format,
			Required:    p.Required,
			Description: p.Description,
			Default:     p.Default,
			Enum:        p.Enum,
			Deprecated:  p.Deprecated,
		})
	}

	if op.RequestBody == nil {
		return opts
	}
	for _, prop := range op.RequestBody.Properties {
		name, varName := claim(taken, prop.Name, string(SourceBody))
		opts = append(opts, Option{
			Name:        name,
			VarName:     varName,
			Param:       prop.Name,
			Source:      SourceBody,
			Type:        prop.Type,
			Format:      prop.Format,
			Required:    prop.Required,
			Description: prop.Description,
			Default:     prop.Default,
			Enum:        prop.Enum,
		})
	}
	return opts
}

// claim reserves a flag name for param. A taken name gets the location
// prefix, then a numeric suffix until it is free.
func claim(taken map[string]bool, param, location string) (string, string) {
	name, varName := toFlagName(param), naming.Snake(param)
	if taken[name] {
		name, varName = location+"-"+name, location+"_"+varName
	}
	base, baseVar := name, varName
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
		varName = fmt.Sprintf("%s_%d", baseVar, i)
	}
	taken[name] = true
	return name, varName
}

// addFlag registers opt on cmd with a pflag type matching its schema type.
func addFlag(cmd *cobra.Command, opt Option) error {
	flags := cmd.Flags()
	if flags.Lookup(opt.Name) != nil {
		return fmt.Errorf("flag --%s defined twice", opt.Name)
	}
	usage := opt.Description

	switch {
	case len(opt.Enum) > 0:
		flags.String(opt.Name, defaultString(opt.Default), usage)
		enum := make([]string, len(opt.Enum))
		for i, e := range opt.Enum {
			enum[i] = fmt.Sprintf("%v", e)
		}
		if err := flags.SetAnnotation(opt.Name, "enum", enum); err != nil {
			return err
		}
	case opt.Type == "integer":
		flags.Int(opt.Name, int(defaultFloat(opt.Default)), usage)
	case opt.Type == "number":
		flags.Float64(opt.Name, defaultFloat(opt.Default), usage)
	case opt.Type == "boolean":
		b, _ := opt.Default.(bool)
		flags.Bool(opt.Name, b, usage)
	case opt.Type == "array":
		flags.StringArray(opt.Name, nil, usage)
	default:
		flags.String(opt.Name, defaultString(opt.Default), usage)
	}

	if opt.Format == "password" {
		if err := flags.SetAnnotation(opt.Name, "sensitive", []string{"true"}); err != nil {
			return err
		}
	}
	if err := flags.SetAnnotation(opt.Name, "source", []string{string(opt.Source), opt.Param}); err != nil {
		return err
	}
	if opt.Deprecated {
		if err := flags.MarkDeprecated(opt.Name, "deprecated in the API"); err != nil {
			return err
		}
	}
	if opt.Required {
		if err := cmd.MarkFlagRequired(opt.Name); err != nil {
			return fmt.Errorf("failed to mark flag %s as required: %w", opt.Name, err)
		}
	}
	return nil
}

func defaultString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func defaultFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

// GetFlagValue retrieves a flag value with type conversion.
func GetFlagValue(flags *pflag.FlagSet, name string) (any, error) {
	flag := flags.Lookup(name)
	if flag == nil {
		return nil, fmt.Errorf("flag %s not found", name)
	}

	switch flag.Value.Type() {
	case "string":
		return flags.GetString(name)
	case "int":
		return flags.GetInt(name)
	case "float64":
		return flags.GetFloat64(name)
	case "bool":
		return flags.GetBool(name)
	case "stringArray":
		return flags.GetStringArray(name)
	default:
		return flag.Value.String(), nil
	}
}

// RequestValues collects the changed option flags of cmd by source, keyed
// by API parameter or property name.
func RequestValues(cmd *cobra.Command) map[Source]map[string]any {
	values := make(map[Source]map[string]any)
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			return
		}
		source, ok := flag.Annotations["source"]
		if !ok || len(source) != 2 {
			return
		}
		val, err := GetFlagValue(cmd.Flags(), flag.Name)
		if err != nil {
			return
		}
		src := Source(source[0])
		if values[src] == nil {
			values[src] = make(map[string]any)
		}
		values[src][source[1]] = val
	})
	return values
}

// ValidateEnumFlags validates enum flag values.
func ValidateEnumFlags(cmd *cobra.Command) error {
	var errs []string

	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			return
		}
		enumValues, ok := flag.Annotations["enum"]
		if !ok {
			return
		}
		value := flag.Value.String()
		for _, v := range enumValues {
			if value == v {
				return
			}
		}
		errs = append(errs, fmt.Sprintf("flag --%s: value '%s' not in allowed values: %s",
			flag.Name, value, strings.Join(enumValues, ", ")))
	})

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// toFlagName converts a parameter name to a flag name.
func toFlagName(name string) string {
	return toCommandName(name)
}
