package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcflow/joincore/internal/demos"
	"github.com/arcflow/joincore/internal/join"
)

func newCounterCommand() *cobra.Command {
	var initial int
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "run the counter incr/decr/fetch scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			exec := join.NewGoExecutor()
			defer exec.Shutdown()

			c, err := demos.NewCounter(exec, initial)
			if err != nil {
				return err
			}
			for i := 0; i < 5; i++ {
				if err := c.Incr.Emit(struct{}{}); err != nil {
					return err
				}
			}
			for i := 0; i < 2; i++ {
				if err := c.Decr.Emit(struct{}{}); err != nil {
					return err
				}
			}

			v, err := pollFetch(c, 2*time.Second)
			if err != nil {
				return err
			}
			fmt.Printf("counter scenario: started at %d, +5/-2, settled at %d\n", initial, v)
			return nil
		},
	}
	cmd.Flags().IntVar(&initial, "initial", 0, "starting counter value")
	return cmd
}

func pollFetch(c *demos.Counter, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	var last int
	for time.Now().Before(deadline) {
		v, err := c.Fetch.Emit(struct{}{})
		if err != nil {
			return 0, err
		}
		last = v
		time.Sleep(5 * time.Millisecond)
	}
	return last, nil
}

func newFetchCommand() *cobra.Command {
	var initial int
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "drive a counter to zero and block a sync fetch on it",
		RunE: func(cmd *cobra.Command, args []string) error {
			exec := join.NewGoExecutor()
			defer exec.Shutdown()

			c, err := demos.NewCounter(exec, initial)
			if err != nil {
				return err
			}
			for i := 0; i < initial; i++ {
				if err := c.Decr.Emit(struct{}{}); err != nil {
					return err
				}
			}

			// Fetch replies with whatever value the counter holds, so keep
			// fetching until every queued decrement has been applied.
			deadline := time.Now().Add(2 * time.Second)
			v, err := c.Fetch.Emit(struct{}{})
			for err == nil && v != 0 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
				v, err = c.Fetch.Emit(struct{}{})
			}
			if err != nil {
				return err
			}
			fmt.Printf("fetch scenario: counter reached %d\n", v)
			return nil
		},
	}
	cmd.Flags().IntVar(&initial, "initial", 50, "starting counter value, decremented to zero before fetching")
	return cmd
}

func newPhilosophersCommand() *cobra.Command {
	var n int
	var meals int
	cmd := &cobra.Command{
		Use:   "philosophers",
		Short: "run the dining philosophers scenario and report meals served",
		RunE: func(cmd *cobra.Command, args []string) error {
			exec := join.NewPoolExecutor(n*2, n*4)
			defer exec.Shutdown()

			d, err := demos.NewDiningPhilosophers(exec, n)
			if err != nil {
				return err
			}

			deadline := time.Now().Add(10 * time.Second)
			for d.MealsServed() < int64(meals) && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			fmt.Printf("philosophers scenario: %d philosophers served %d meals\n", n, d.MealsServed())
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "philosophers", 5, "number of philosophers and forks")
	cmd.Flags().IntVar(&meals, "meals", 50, "minimum meals to wait for")
	return cmd
}

func newMapReduceCommand() *cobra.Command {
	var upper int
	cmd := &cobra.Command{
		Use:   "mapreduce",
		Short: "sum the squares of 1..N via map/reduce and fetch the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			exec := join.NewPoolExecutor(8, 32)
			defer exec.Shutdown()

			m, err := demos.NewMapReduceSquares(exec, upper)
			if err != nil {
				return err
			}

			deadline := time.Now().Add(10 * time.Second)
			var result int
			var gotResult bool
			for time.Now().Before(deadline) {
				v, err := m.Fetch.Emit(struct{}{})
				if err != nil {
					return err
				}
				if v != -1 {
					result = v
					gotResult = true
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			if !gotResult {
				return fmt.Errorf("mapreduce scenario: did not converge within the deadline")
			}
			fmt.Printf("mapreduce scenario: sum of squares 1..%d = %d (expected %d)\n", upper, result, m.ExpectedSum())
			return nil
		},
	}
	cmd.Flags().IntVar(&upper, "upper", 100, "upper bound of the squared range")
	return cmd
}
