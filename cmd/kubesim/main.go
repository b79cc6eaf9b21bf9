package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kubelearn/kubesim/pkg/command"
	"github.com/kubelearn/kubesim/pkg/log"
	"github.com/kubelearn/kubesim/pkg/sim"
	"github.com/kubelearn/kubesim/pkg/storage"
	"github.com/kubelearn/kubesim/pkg/types"
	"github.com/kubelearn/kubesim/pkg/uid"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kubesim",
	Short: "KubeSim - A turn-based Kubernetes control-plane simulator",
	Long: `KubeSim is an in-memory simulation of a Kubernetes-like control plane
for learning how controllers reconcile desired and observed state.

Issue imperative commands (create, scale, set-image, delete) against the
declarative object model, then advance discrete reconcile ticks and watch
deployments roll, pods crash-loop and services re-point their endpoints.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOut, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut, Output: os.Stderr})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"KubeSim version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "Directory for session checkpoints")
	rootCmd.PersistentFlags().String("session", "default", "Session name")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")

	rootCmd.AddCommand(scaleCmd)
	rootCmd.AddCommand(setImageCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(injectCmd)
	rootCmd.AddCommand(resetCmd)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kubesim"
	}
	return filepath.Join(home, ".kubesim")
}

// openStore opens the checkpoint database configured on the command line.
func openStore(cmd *cobra.Command) (*storage.BoltStore, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return storage.NewBoltStore(dataDir)
}

// loadSession restores the named session from its checkpoint, or starts a
// fresh one if none exists yet.
func loadSession(cmd *cobra.Command) (*sim.Session, *storage.BoltStore, string, error) {
	store, err := openStore(cmd)
	if err != nil {
		return nil, nil, "", err
	}
	name, _ := cmd.Flags().GetString("session")

	rec, err := store.GetSession(name)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return sim.New(name), store, "", nil
		}
		store.Close()
		return nil, nil, "", err
	}

	sess := sim.New(name,
		sim.WithState(rec.State),
		sim.WithUIDGenerator(uid.NewSequenceAt(rec.NextUID)),
		sim.WithFailures(rec.Failures),
	)
	return sess, store, rec.LessonID, nil
}

// saveSession checkpoints the session so the next invocation resumes it.
func saveSession(store *storage.BoltStore, sess *sim.Session, lessonID string) error {
	rec := &storage.SessionRecord{
		Name:     sess.Name(),
		LessonID: lessonID,
		State:    sess.State(),
		Failures: sess.Failures(),
	}
	if seq, ok := sess.Generator().(*uid.Sequence); ok {
		rec.NextUID = seq.Next()
	}
	return store.SaveSession(rec)
}

// runSessionCommand loads the session, applies fn, and checkpoints on success.
func runSessionCommand(cmd *cobra.Command, fn func(sess *sim.Session) error) error {
	sess, store, lessonID, err := loadSession(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := fn(sess); err != nil {
		return err
	}
	return saveSession(store, sess, lessonID)
}

// kindSlug renders a kind the way kubectl prints it, lowercase.
func kindSlug(kind types.Kind) string {
	return strings.ToLower(string(kind))
}

// parseKind maps a CLI kind argument to its canonical object kind.
func parseKind(arg string) (types.Kind, error) {
	switch strings.ToLower(arg) {
	case "pod", "pods", "po":
		return types.KindPod, nil
	case "replicaset", "replicasets", "rs":
		return types.KindReplicaSet, nil
	case "deployment", "deployments", "deploy":
		return types.KindDeployment, nil
	case "statefulset", "statefulsets", "sts":
		return types.KindStatefulSet, nil
	case "service", "services", "svc":
		return types.KindService, nil
	case "node", "nodes", "no":
		return types.KindNode, nil
	case "secret", "secrets":
		return types.KindSecret, nil
	case "configmap", "configmaps", "cm":
		return types.KindConfigMap, nil
	case "pvc", "volumeclaim", "volumeclaims", "persistentvolumeclaim", "persistentvolumeclaims":
		return types.KindPersistentVolumeClaim, nil
	default:
		return "", fmt.Errorf("unknown kind %q", arg)
	}
}

var scaleCmd = &cobra.Command{
	Use:   "scale KIND NAME",
	Short: "Set the desired replica count of a workload",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		replicas, _ := cmd.Flags().GetInt("replicas")
		return runSessionCommand(cmd, func(sess *sim.Session) error {
			if err := sess.Apply(command.Command{
				Verb: command.VerbScale, Kind: kind, Name: args[1],
				Fields: command.Fields{Replicas: &replicas},
			}); err != nil {
				return err
			}
			fmt.Printf("%s/%s scaled to %d\n", kindSlug(kind), args[1], replicas)
			return nil
		})
	},
}

var setImageCmd = &cobra.Command{
	Use:   "set-image KIND NAME IMAGE",
	Short: "Change the pod template image of a workload",
	Long: `Change the pod template image of a deployment or stateful set.

Existing pods are never modified in place: the change rolls out through
newly created replacement pods on subsequent reconcile ticks.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return runSessionCommand(cmd, func(sess *sim.Session) error {
			if err := sess.Apply(command.Command{
				Verb: command.VerbSetImage, Kind: kind, Name: args[1],
				Fields: command.Fields{Image: args[2]},
			}); err != nil {
				return err
			}
			fmt.Printf("%s/%s image set to %s\n", kindSlug(kind), args[1], args[2])
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete KIND NAME",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return runSessionCommand(cmd, func(sess *sim.Session) error {
			if err := sess.Apply(command.Command{
				Verb: command.VerbDelete, Kind: kind, Name: args[1],
			}); err != nil {
				return err
			}
			fmt.Printf("%s/%s deleted\n", kindSlug(kind), args[1])
			return nil
		})
	},
}

var patchCmd = &cobra.Command{
	Use:   "patch KIND NAME",
	Short: "Merge field changes into an object's desired state",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		fields := command.Fields{}
		if cmd.Flags().Changed("replicas") {
			replicas, _ := cmd.Flags().GetInt("replicas")
			fields.Replicas = &replicas
		}
		fields.Image, _ = cmd.Flags().GetString("image")
		fields.Labels, _ = cmd.Flags().GetStringToString("labels")
		fields.Selector, _ = cmd.Flags().GetStringToString("selector")
		fields.Port, _ = cmd.Flags().GetInt("port")
		return runSessionCommand(cmd, func(sess *sim.Session) error {
			if err := sess.Apply(command.Command{
				Verb: command.VerbPatch, Kind: kind, Name: args[1], Fields: fields,
			}); err != nil {
				return err
			}
			fmt.Printf("%s/%s patched\n", kindSlug(kind), args[1])
			return nil
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Advance the simulation by one or more reconcile ticks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ticks, _ := cmd.Flags().GetInt("ticks")
		if ticks < 1 {
			return fmt.Errorf("ticks must be at least 1")
		}
		return runSessionCommand(cmd, func(sess *sim.Session) error {
			emitted := sess.Reconcile(ticks)
			fmt.Printf("advanced %d tick(s), now at tick %d\n", ticks, sess.State().Tick)
			for _, ev := range emitted {
				fmt.Printf("  [%d] %-7s %-20s %s/%s: %s\n",
					ev.Tick, ev.Type, ev.Reason, ev.ObjectKind, ev.ObjectName, ev.Message)
			}
			return nil
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the full simulation event feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, store, _, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, ev := range sess.State().Events {
			fmt.Printf("[%d] %-7s %-20s %s/%s: %s\n",
				ev.Tick, ev.Type, ev.Reason, ev.ObjectKind, ev.ObjectName, ev.Message)
		}
		return nil
	},
}

var injectCmd = &cobra.Command{
	Use:   "inject IMAGE MODE",
	Short: "Inject a failure mode for an image",
	Long: `Map an image to a simulated failure mode. Valid modes are
ImagePullError, CrashLoop and OOMKilled, or "none" to clear the injection.

Only pods created after the injection are affected; existing pods keep the
mode they were created with.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionCommand(cmd, func(sess *sim.Session) error {
			image := args[0]
			switch args[1] {
			case "none":
				sess.ClearFailure(image)
				fmt.Printf("cleared failure mode for %s\n", image)
			case string(types.FailureImagePull), string(types.FailureCrashLoop), string(types.FailureOOMKilled):
				sess.InjectFailure(image, types.FailureMode(args[1]))
				fmt.Printf("injected %s for %s\n", args[1], image)
			default:
				return fmt.Errorf("unknown failure mode %q", args[1])
			}
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the session and start over",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		name, _ := cmd.Flags().GetString("session")
		if err := store.DeleteSession(name); err != nil {
			return err
		}
		fmt.Printf("session %q reset\n", name)
		return nil
	},
}

func init() {
	scaleCmd.Flags().Int("replicas", 1, "Desired replica count")
	_ = scaleCmd.MarkFlagRequired("replicas")

	reconcileCmd.Flags().Int("ticks", 1, "Number of ticks to advance")

	patchCmd.Flags().Int("replicas", 0, "Desired replica count")
	patchCmd.Flags().String("image", "", "Pod template image")
	patchCmd.Flags().StringToString("labels", nil, "Labels to merge (key=value)")
	patchCmd.Flags().StringToString("selector", nil, "Replacement label selector")
	patchCmd.Flags().Int("port", 0, "Service port")
}
