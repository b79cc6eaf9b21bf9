package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubelearn/kubesim/pkg/command"
	"github.com/kubelearn/kubesim/pkg/sim"
	"github.com/kubelearn/kubesim/pkg/types"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an object in the simulated cluster",
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.AddCommand(createDeploymentCmd)
	createCmd.AddCommand(createStatefulSetCmd)
	createCmd.AddCommand(createPodCmd)
	createCmd.AddCommand(createServiceCmd)
	createCmd.AddCommand(createNodeCmd)
	createCmd.AddCommand(createSecretCmd)
	createCmd.AddCommand(createConfigMapCmd)

	for _, c := range []*cobra.Command{createDeploymentCmd, createStatefulSetCmd} {
		c.Flags().String("image", "", "Pod template image (required)")
		c.Flags().Int("replicas", 1, "Desired replica count")
		c.Flags().StringToString("labels", nil, "Pod template labels (key=value)")
		c.Flags().StringToString("selector", nil, "Label selector (defaults to the labels)")
		_ = c.MarkFlagRequired("image")
	}
	createDeploymentCmd.Flags().String("strategy", string(types.StrategyRollingUpdate), "Update strategy (RollingUpdate or Recreate)")
	createDeploymentCmd.Flags().Int("max-surge", 0, "Extra pods allowed above desired during a rollout")
	createDeploymentCmd.Flags().Int("max-unavailable", 0, "Pods allowed below desired during a rollout")
	createStatefulSetCmd.Flags().String("service-name", "", "Governing headless service name (defaults to the set name)")

	createPodCmd.Flags().String("image", "", "Container image (required)")
	createPodCmd.Flags().StringToString("labels", nil, "Pod labels (key=value)")
	_ = createPodCmd.MarkFlagRequired("image")

	createServiceCmd.Flags().StringToString("selector", nil, "Label selector (required)")
	createServiceCmd.Flags().Int("port", 80, "Service port")
	createServiceCmd.Flags().Bool("headless", false, "Create a headless service")
	_ = createServiceCmd.MarkFlagRequired("selector")

	createNodeCmd.Flags().Int("capacity", 10, "Maximum pods the node can host")

	createSecretCmd.Flags().StringToString("data", nil, "Secret data (key=value)")
	createConfigMapCmd.Flags().StringToString("data", nil, "ConfigMap data (key=value)")
}

// runCreate applies a create command and prints the standard confirmation.
func runCreate(cmd *cobra.Command, kind types.Kind, name string, fields command.Fields) error {
	return runSessionCommand(cmd, func(sess *sim.Session) error {
		if err := sess.Apply(command.Command{
			Verb: command.VerbCreate, Kind: kind, Name: name, Fields: fields,
		}); err != nil {
			return err
		}
		fmt.Printf("%s/%s created\n", kindSlug(kind), name)
		return nil
	})
}

func workloadFields(cmd *cobra.Command) command.Fields {
	image, _ := cmd.Flags().GetString("image")
	replicas, _ := cmd.Flags().GetInt("replicas")
	labels, _ := cmd.Flags().GetStringToString("labels")
	selector, _ := cmd.Flags().GetStringToString("selector")
	return command.Fields{
		Image:    image,
		Replicas: &replicas,
		Labels:   labels,
		Selector: selector,
	}
}

var createDeploymentCmd = &cobra.Command{
	Use:   "deployment NAME",
	Short: "Create a deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := workloadFields(cmd)
		fields.Strategy, _ = cmd.Flags().GetString("strategy")
		if cmd.Flags().Changed("max-surge") {
			surge, _ := cmd.Flags().GetInt("max-surge")
			fields.MaxSurge = &surge
		}
		if cmd.Flags().Changed("max-unavailable") {
			unavail, _ := cmd.Flags().GetInt("max-unavailable")
			fields.MaxUnavailable = &unavail
		}
		return runCreate(cmd, types.KindDeployment, args[0], fields)
	},
}

var createStatefulSetCmd = &cobra.Command{
	Use:   "statefulset NAME",
	Short: "Create a stateful set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := workloadFields(cmd)
		fields.ServiceName, _ = cmd.Flags().GetString("service-name")
		return runCreate(cmd, types.KindStatefulSet, args[0], fields)
	},
}

var createPodCmd = &cobra.Command{
	Use:   "pod NAME",
	Short: "Create a standalone pod",
	Long: `Create a pod with no owning controller. Standalone pods are not
replaced when they fail, which is exactly why workloads exist.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, _ := cmd.Flags().GetString("image")
		labels, _ := cmd.Flags().GetStringToString("labels")
		return runCreate(cmd, types.KindPod, args[0], command.Fields{Image: image, Labels: labels})
	},
}

var createServiceCmd = &cobra.Command{
	Use:   "service NAME",
	Short: "Create a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, _ := cmd.Flags().GetStringToString("selector")
		port, _ := cmd.Flags().GetInt("port")
		headless, _ := cmd.Flags().GetBool("headless")
		return runCreate(cmd, types.KindService, args[0], command.Fields{
			Selector: selector, Port: port, Headless: headless,
		})
	},
}

var createNodeCmd = &cobra.Command{
	Use:   "node NAME",
	Short: "Create a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		capacity, _ := cmd.Flags().GetInt("capacity")
		return runCreate(cmd, types.KindNode, args[0], command.Fields{PodCapacity: &capacity})
	},
}

var createSecretCmd = &cobra.Command{
	Use:   "secret NAME",
	Short: "Create a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _ := cmd.Flags().GetStringToString("data")
		return runCreate(cmd, types.KindSecret, args[0], command.Fields{Data: data})
	},
}

var createConfigMapCmd = &cobra.Command{
	Use:   "configmap NAME",
	Short: "Create a config map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _ := cmd.Flags().GetStringToString("data")
		return runCreate(cmd, types.KindConfigMap, args[0], command.Fields{Data: data})
	},
}
