package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kubelearn/kubesim/pkg/lesson"
	"github.com/kubelearn/kubesim/pkg/sim"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Start and track guided exercises",
}

func init() {
	rootCmd.AddCommand(lessonCmd)
	lessonCmd.AddCommand(lessonStartCmd)
	lessonCmd.AddCommand(lessonStatusCmd)

	lessonStartCmd.Flags().StringP("file", "f", "", "Lesson YAML file (required)")
	_ = lessonStartCmd.MarkFlagRequired("file")
}

var lessonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a lesson, replacing the session's cluster",
	Long: `Load a lesson file, seed a fresh cluster from its setup steps and
inject its failure table. Any previous state of the session is discarded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		path, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		l, err := lesson.Load(path)
		if err != nil {
			return err
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		name, _ := cmd.Flags().GetString("session")
		sess := sim.New(name, sim.WithFailures(l.Failures))
		for _, step := range l.Setup {
			if err := sess.Apply(step.ToCommand()); err != nil {
				return fmt.Errorf("setup step %s %s/%s: %w", step.Verb, step.Kind, step.Name, err)
			}
		}

		if err := saveSession(store, sess, path); err != nil {
			return err
		}

		fmt.Printf("Lesson started: %s (%s)\n", l.Title, l.ID)
		for _, g := range l.Goals {
			fmt.Printf("  [ ] %s\n", g.Description)
		}
		return nil
	},
}

var lessonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Evaluate the active lesson's goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, store, lessonPath, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if lessonPath == "" {
			return fmt.Errorf("no active lesson; run kubesim lesson start -f FILE")
		}
		l, err := lesson.Load(lessonPath)
		if err != nil {
			return err
		}

		fmt.Printf("Lesson: %s (%s)\n", l.Title, l.ID)
		for _, gs := range l.Evaluate(sess.State()) {
			mark := " "
			if gs.Done {
				mark = "x"
			}
			fmt.Printf("  [%s] %s\n", mark, gs.Goal.Description)
		}
		if l.Complete(sess.State()) {
			fmt.Println("Lesson complete!")
		}
		return nil
	},
}
