package cuadre

import "fmt"

// Typed guard errors returned by the services. Handlers map them to HTTP
// status codes with errors.As; messages are safe to show to the caller.

// ErrorValidacion marks malformed or out-of-range input (e.g. monto <= 0).
type ErrorValidacion struct {
	Campo   string
	Detalle string
}

func (e *ErrorValidacion) Error() string {
	if e.Campo == "" {
		return e.Detalle
	}
	return fmt.Sprintf("%s: %s", e.Campo, e.Detalle)
}

// ErrorConflicto marks a duplicate active corte for the same
// ambito + sucursal + usuario + fecha.
type ErrorConflicto struct {
	Detalle string
}

func (e *ErrorConflicto) Error() string { return e.Detalle }

// ErrorEstadoInvalido marks an operation against a corte in the wrong state
// (e.g. recording a movement on a closed corte, closing twice).
type ErrorEstadoInvalido struct {
	Estado    string
	Operacion string
}

func (e *ErrorEstadoInvalido) Error() string {
	return fmt.Sprintf("operación %q no permitida: el corte está %s", e.Operacion, e.Estado)
}

// ErrorBloqueado marks a close blocked by an unresolved dependency; it names
// the first offender (e.g. the user whose drawer cut is still open).
type ErrorBloqueado struct {
	Dependencia string
}

func (e *ErrorBloqueado) Error() string {
	return fmt.Sprintf("cierre bloqueado: %s tiene un corte pendiente", e.Dependencia)
}
