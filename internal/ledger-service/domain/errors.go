package domain

import (
	"errors"
	"strings"
)

// FaultKind classifica falhas das operações do ledger.
// O chamador decide por kind, nunca por mensagem.
type FaultKind string

const (
	FaultValidation FaultKind = "validation" // entrada ruim ou estado inelegível; sem mutação
	FaultNotFound   FaultKind = "not_found"  // conta/evento/aposta inexistente
	FaultConflict   FaultKind = "conflict"   // transição de estado não permitida
	FaultTransient  FaultKind = "transient"  // contenção/conexão; já re-tentado internamente
	FaultFatal      FaultKind = "fatal"      // erro interno inesperado; propaga intacto
)

// Fault é o erro estruturado das operações do ledger.
type Fault struct {
	Kind    FaultKind
	Reasons []string
}

func (f *Fault) Error() string {
	if len(f.Reasons) == 0 {
		return string(f.Kind)
	}
	return string(f.Kind) + ": " + strings.Join(f.Reasons, "; ")
}

// NewValidation cria uma falha de validação com a lista de motivos
func NewValidation(reasons ...string) *Fault {
	return &Fault{Kind: FaultValidation, Reasons: reasons}
}

// NewNotFound cria uma falha de recurso inexistente
func NewNotFound(what string) *Fault {
	return &Fault{Kind: FaultNotFound, Reasons: []string{what + " not found"}}
}

// NewConflict cria uma falha de transição de estado não permitida
func NewConflict(reason string) *Fault {
	return &Fault{Kind: FaultConflict, Reasons: []string{reason}}
}

// NewTransient marca uma falha transitória já esgotadas as tentativas
func NewTransient(reason string) *Fault {
	return &Fault{Kind: FaultTransient, Reasons: []string{reason}}
}

// KindOf extrai o kind de um erro; erros não classificados são fatais
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return FaultFatal
}

// IsKind reporta se o erro carrega o kind informado
func IsKind(err error, kind FaultKind) bool {
	return err != nil && KindOf(err) == kind
}
