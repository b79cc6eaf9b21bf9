package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kubelearn/kubesim/pkg/command"
	"github.com/kubelearn/kubesim/pkg/sim"
	"github.com/kubelearn/kubesim/pkg/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a manifest file",
	Long: `Apply object manifests from a YAML file. A file may hold several
documents separated by ---.

Examples:
  # Apply a deployment definition
  kubesim apply -f deployment.yaml

  # Seed a whole cluster
  kubesim apply -f cluster.yaml`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply (required)")
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

// Manifest is a generic YAML object definition
type Manifest struct {
	APIVersion string                 `yaml:"apiVersion"`
	Kind       string                 `yaml:"kind"`
	Metadata   ManifestMetadata       `yaml:"metadata"`
	Spec       map[string]interface{} `yaml:"spec"`
}

type ManifestMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	var manifests []Manifest
	dec := yaml.NewDecoder(f)
	for {
		var m Manifest
		if err := dec.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
		if m.Kind == "" {
			continue
		}
		manifests = append(manifests, m)
	}

	return runSessionCommand(cmd, func(sess *sim.Session) error {
		for i := range manifests {
			if err := applyManifest(sess, &manifests[i]); err != nil {
				return fmt.Errorf("document %d (%s/%s): %w",
					i+1, manifests[i].Kind, manifests[i].Metadata.Name, err)
			}
		}
		return nil
	})
}

func applyManifest(sess *sim.Session, m *Manifest) error {
	kind, err := parseKind(m.Kind)
	if err != nil {
		return err
	}
	if m.Metadata.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}

	fields, err := manifestFields(kind, m)
	if err != nil {
		return err
	}

	if err := sess.Apply(command.Command{
		Verb: command.VerbCreate, Kind: kind, Name: m.Metadata.Name, Fields: fields,
	}); err != nil {
		return err
	}
	fmt.Printf("%s/%s created\n", kindSlug(kind), m.Metadata.Name)
	return nil
}

func manifestFields(kind types.Kind, m *Manifest) (command.Fields, error) {
	switch kind {
	case types.KindDeployment, types.KindStatefulSet:
		replicas := getInt(m.Spec, "replicas", 1)
		fields := command.Fields{
			Image:    getString(m.Spec, "image", ""),
			Replicas: &replicas,
			Labels:   m.Metadata.Labels,
			Selector: getStringMap(m.Spec, "selector"),
		}
		if fields.Image == "" {
			return fields, fmt.Errorf("spec.image is required")
		}
		if kind == types.KindDeployment {
			fields.Strategy = getString(m.Spec, "strategy", "")
			if v, ok := m.Spec["maxSurge"]; ok {
				surge := asInt(v)
				fields.MaxSurge = &surge
			}
			if v, ok := m.Spec["maxUnavailable"]; ok {
				unavail := asInt(v)
				fields.MaxUnavailable = &unavail
			}
		} else {
			fields.ServiceName = getString(m.Spec, "serviceName", "")
		}
		return fields, nil
	case types.KindPod:
		fields := command.Fields{
			Image:  getString(m.Spec, "image", ""),
			Labels: m.Metadata.Labels,
		}
		if fields.Image == "" {
			return fields, fmt.Errorf("spec.image is required")
		}
		return fields, nil
	case types.KindService:
		return command.Fields{
			Selector: getStringMap(m.Spec, "selector"),
			Port:     getInt(m.Spec, "port", 80),
			Headless: getBool(m.Spec, "headless"),
		}, nil
	case types.KindNode:
		capacity := getInt(m.Spec, "podCapacity", 10)
		return command.Fields{PodCapacity: &capacity}, nil
	case types.KindSecret, types.KindConfigMap:
		return command.Fields{Data: getStringMap(m.Spec, "data")}, nil
	default:
		return command.Fields{}, fmt.Errorf("unsupported manifest kind %s", kind)
	}
}

// Helper functions
func getString(m map[string]interface{}, key, defaultValue string) string {
	if v, ok := m[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return defaultValue
}

func getInt(m map[string]interface{}, key string, defaultValue int) int {
	if v, ok := m[key]; ok {
		return asInt(v)
	}
	return defaultValue
}

func asInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	}
	return 0
}

func getBool(m map[string]interface{}, key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

func getStringMap(m map[string]interface{}, key string) map[string]string {
	raw, ok := m[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
