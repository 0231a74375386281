// Package process provides the process-spawn capability used by the
// compiler orchestrator and the synctex mapping engine.
//
// Callers depend on the narrow Spawner and Handle interfaces so that tests
// can substitute scripted fakes for pdflatex and synctex. The Supervisor is
// the production Spawner: it launches each child in its own process group,
// tracks it until exit, and tears everything down on Shutdown.
//
// # Supervisor
//
//	supervisor := process.NewSupervisor()
//	defer supervisor.Shutdown(5 * time.Second)
//
//	h, err := supervisor.Start(ctx, process.Spec{
//	    Name: "pdflatex",
//	    Args: []string{"-synctex=1", "-interaction=nonstopmode", "paper.tex"},
//	    Dir:  "/home/me/paper",
//	})
//	if err != nil {
//	    var se *process.StartError
//	    if errors.As(err, &se) {
//	        // binary missing or not executable
//	    }
//	}
//	io.Copy(os.Stdout, h.Stdout())
//	status := h.Wait()
//
// # Output streams
//
// Stdout and Stderr are exposed as readers that reach EOF once the child
// has exited and its output has been drained. Both streams must be read to
// completion: an unread stream blocks the child once its pipe buffer fills.
//
// # Thread Safety
//
// Both Supervisor and Process are safe for concurrent use.
package process
