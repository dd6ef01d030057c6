package checkout

import "strings"

// Kind classifies checkout failures so the caller can map them to user-facing
// copy with a table lookup instead of matching message substrings downstream.
type Kind string

const (
	KindNone           Kind = ""
	KindMissingProfile Kind = "missing_profile"
	KindInstallments   Kind = "no_payments_created"
	KindTransport      Kind = "transport"
	KindNoLink         Kind = "no_checkout_link"
	KindThrottled      Kind = "throttled"
	KindWait           Kind = "wait"
	KindUnknown        Kind = "unknown"
)

// Notice is the user-facing rendering of a Kind.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

var notices = map[Kind]Notice{
	KindMissingProfile: {
		Kind:    KindMissingProfile,
		Title:   "Complete seu cadastro",
		Message: "Preencha nome, CPF/CNPJ e telefone no seu perfil antes de assinar.",
	},
	KindInstallments: {
		Kind:    KindInstallments,
		Title:   "Erro ao processar parcelas",
		Message: "Não foi possível gerar as cobranças do seu plano. Tente novamente.",
	},
	KindTransport: {
		Kind:    KindTransport,
		Title:   "Falha de comunicação",
		Message: "Não conseguimos falar com o provedor de pagamento. Tente novamente em instantes.",
	},
	KindNoLink: {
		Kind:    KindNoLink,
		Title:   "Link de pagamento indisponível",
		Message: "O pagamento foi criado mas nenhum link foi retornado. Entre em contato com o suporte.",
	},
	KindThrottled: {
		Kind:    KindThrottled,
		Title:   "Muitas tentativas",
		Message: "Você atingiu o limite de tentativas. Aguarde alguns minutos e tente novamente.",
	},
	KindWait: {
		Kind:    KindWait,
		Title:   "Aguarde um instante",
		Message: "Já existe uma tentativa recente. Aguarde alguns segundos antes de tentar de novo.",
	},
	KindUnknown: {
		Kind:    KindUnknown,
		Title:   "Erro ao iniciar pagamento",
		Message: "Algo deu errado ao iniciar seu pagamento. Tente novamente.",
	},
}

// NoticeFor returns the user-facing notice for a kind, falling back to the
// generic one for kinds it does not know.
func NoticeFor(kind Kind) Notice {
	if n, ok := notices[kind]; ok {
		return n
	}
	return notices[KindUnknown]
}

// ClassifyMessage converts a raw upstream error message into a Kind. This is
// the single place foreign strings are interpreted; everything past this
// boundary works with kinds only.
func ClassifyMessage(msg string) Kind {
	m := strings.ToLower(msg)
	switch {
	case m == "":
		return KindUnknown
	case strings.Contains(m, "profile") || strings.Contains(m, "cadastro"):
		return KindMissingProfile
	case strings.Contains(m, "no payments") || strings.Contains(m, "nenhum pagamento"):
		return KindInstallments
	case strings.Contains(m, "no checkout link") || strings.Contains(m, "link was returned"):
		return KindNoLink
	case strings.Contains(m, "edge function") || strings.Contains(m, "failed to send") ||
		strings.Contains(m, "network") || strings.Contains(m, "timeout"):
		return KindTransport
	default:
		return KindUnknown
	}
}
