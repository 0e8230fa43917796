// internal/core/domain/enums.go
package domain

// TargetKind clasifica un target por su forma.
type TargetKind string

const (
	// TargetKindEmail valores que contienen '@'
	TargetKindEmail TargetKind = "email"

	// TargetKindDomain valores con al menos dos etiquetas separadas por '.'
	TargetKindDomain TargetKind = "domain"

	// TargetKindHandle cualquier otro identificador (nombre de usuario)
	TargetKindHandle TargetKind = "handle"
)

// IsValid verifica si el tipo de target es válido.
func (k TargetKind) IsValid() bool {
	switch k {
	case TargetKindEmail, TargetKindDomain, TargetKindHandle:
		return true
	default:
		return false
	}
}

// String retorna la representación string del tipo.
func (k TargetKind) String() string {
	return string(k)
}

// DefaultWorkflow retorna el workflow que se usa cuando el usuario no elige uno.
func (k TargetKind) DefaultWorkflow() string {
	switch k {
	case TargetKindEmail:
		return "email_intelligence"
	case TargetKindDomain:
		return "domain_reconnaissance"
	default:
		return "username_enumeration"
	}
}

// ResultStatus es el resultado de una invocación de colector.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailed  ResultStatus = "failed"
)

// IsValid verifica si el estado es válido.
func (s ResultStatus) IsValid() bool {
	return s == StatusSuccess || s == StatusFailed
}

// String retorna la representación string del estado.
func (s ResultStatus) String() string {
	return string(s)
}

// ErrorKind clasifica el motivo de un fallo de colector.
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindUnknownCollector  ErrorKind = "unknown_collector"
	ErrorKindMissingCredential ErrorKind = "missing_credential"
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindFault             ErrorKind = "fault"
	ErrorKindCanceled          ErrorKind = "canceled"
)

// String retorna la representación string del tipo de error.
func (k ErrorKind) String() string {
	return string(k)
}

// CollectorType clasifica colectores por su tipo de implementación.
type CollectorType string

const (
	// CollectorTypeCLI colectores que ejecutan una herramienta externa
	CollectorTypeCLI CollectorType = "cli"

	// CollectorTypeAPI colectores que consumen APIs HTTP/REST
	CollectorTypeAPI CollectorType = "api"
)

// IsValid verifica si el tipo de colector es válido.
func (t CollectorType) IsValid() bool {
	return t == CollectorTypeCLI || t == CollectorTypeAPI
}

// String retorna la representación string del tipo.
func (t CollectorType) String() string {
	return string(t)
}
