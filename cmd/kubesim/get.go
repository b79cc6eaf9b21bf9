package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kubelearn/kubesim/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get KIND [NAME]",
	Short: "List objects of a kind, or show one by name",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 2 {
			name = args[1]
		}

		sess, store, _, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		state := sess.State()
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		defer w.Flush()

		switch kind {
		case types.KindPod:
			fmt.Fprintln(w, "NAME\tPHASE\tIMAGE\tNODE\tRESTARTS\tAGE")
			for _, p := range state.Pods {
				if name != "" && p.Meta.Name != name {
					continue
				}
				phase := string(p.Status.Phase)
				if p.Meta.Terminating() {
					phase = string(types.PodTerminating)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
					p.Meta.Name, phase, p.Spec.Image, p.Spec.NodeName,
					p.Status.RestartCount, state.Tick-p.Meta.CreationTick)
			}
		case types.KindReplicaSet:
			fmt.Fprintln(w, "NAME\tDESIRED\tCURRENT\tREADY\tIMAGE")
			for _, rs := range state.ReplicaSets {
				if name != "" && rs.Meta.Name != name {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
					rs.Meta.Name, rs.Spec.Replicas, rs.Status.Replicas,
					rs.Status.ReadyReplicas, rs.Spec.Template.Spec.Image)
			}
		case types.KindDeployment:
			fmt.Fprintln(w, "NAME\tDESIRED\tUPDATED\tREADY\tAVAILABLE\tREVISION\tIMAGE")
			for _, d := range state.Deployments {
				if name != "" && d.Meta.Name != name {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
					d.Meta.Name, d.Spec.Replicas, d.Status.UpdatedReplicas,
					d.Status.ReadyReplicas, d.Status.AvailableReplicas,
					d.Status.Revision, d.Spec.Template.Spec.Image)
			}
		case types.KindStatefulSet:
			fmt.Fprintln(w, "NAME\tDESIRED\tCURRENT\tREADY\tIMAGE")
			for _, sts := range state.StatefulSets {
				if name != "" && sts.Meta.Name != name {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
					sts.Meta.Name, sts.Spec.Replicas, sts.Status.Replicas,
					sts.Status.ReadyReplicas, sts.Spec.Template.Spec.Image)
			}
		case types.KindService:
			fmt.Fprintln(w, "NAME\tSELECTOR\tPORT\tENDPOINTS")
			for _, svc := range state.Services {
				if name != "" && svc.Meta.Name != name {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					svc.Meta.Name, formatSelector(svc.Spec.Selector),
					svc.Spec.Port, strings.Join(svc.Status.Endpoints, ","))
			}
		case types.KindNode:
			fmt.Fprintln(w, "NAME\tCAPACITY\tALLOCATED")
			for _, n := range state.Nodes {
				if name != "" && n.Meta.Name != name {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\n",
					n.Meta.Name, n.Spec.PodCapacity, n.Status.AllocatedPods)
			}
		case types.KindSecret:
			fmt.Fprintln(w, "NAME\tKEYS")
			for _, s := range state.Secrets {
				if name != "" && s.Meta.Name != name {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\n", s.Meta.Name, len(s.Data))
			}
		case types.KindConfigMap:
			fmt.Fprintln(w, "NAME\tKEYS")
			for _, c := range state.ConfigMaps {
				if name != "" && c.Meta.Name != name {
					continue
				}
				fmt.Fprintf(w, "%s\t%d\n", c.Meta.Name, len(c.Data))
			}
		case types.KindPersistentVolumeClaim:
			fmt.Fprintln(w, "NAME\tSTATEFULSET\tORDINAL")
			for _, pvc := range state.VolumeClaims {
				if name != "" && pvc.Meta.Name != name {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", pvc.Meta.Name, pvc.StatefulSetName, pvc.Ordinal)
			}
		default:
			return fmt.Errorf("kind %s cannot be listed", kind)
		}
		return nil
	},
}

func formatSelector(selector map[string]string) string {
	pairs := make([]string, 0, len(selector))
	for k, v := range selector {
		pairs = append(pairs, k+"="+v)
	}
	// map iteration order is random; keep the column stable
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
