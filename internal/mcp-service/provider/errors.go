package provider

import "fmt"

// HTTPError indica resposta não-2xx do provedor, preservando o status
// para que o chamador decida como degradar
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("odds provider returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("odds provider returned HTTP %d: %s", e.Status, e.Body)
}

// SchemaError indica payload fora do formato esperado (ex.: não era um array)
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("odds provider returned unexpected payload shape: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
