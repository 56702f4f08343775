// Package stepper implements Stepwise's sequential step engine.
//
// A Builder collects steps and relative insertion requests ("put X after
// the step with id Y") and resolves them into one linear order. The Engine
// it produces walks that order forward and backward, one step at a time,
// keeping a history stack for backward navigation and reporting every
// transition as an immutable ChangeRecord on a hot Stream.
//
// Steps decide for themselves whether they apply (Available) and tell the
// engine what happened through the Handle passed to OnStarted/OnResumed:
//
//	b := stepper.NewBuilder().
//	    AddStep(permissions).
//	    AddStep(connect).
//	    AddStepBefore("connect", scan)
//
//	engine, err := b.Build(stepper.WithLogger(logging.New("engine")))
//	if err != nil {
//	    return err
//	}
//	final, err := engine.Start(ctx, nil)
//
// Start blocks until the run is Completed or Aborted. An Engine runs exactly
// once; build a new one for every run.
package stepper
