package notify

import (
	"fmt"
	"time"
)

// Template data is pure string formatting: no state, no I/O.

// OrderConfirmationData fills the order-confirmation template
type OrderConfirmationData struct {
	CustomerName  string
	OrderNumber   string
	ProductName   string
	AmountInCents int64
}

// DownloadLinkData fills the download-ready template
type DownloadLinkData struct {
	CustomerName string
	OrderNumber  string
	ProductName  string
	DownloadURL  string
	ExpiresAt    time.Time
}

func formatReais(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}

// OrderConfirmation renders the order-confirmation email
func OrderConfirmation(d OrderConfirmationData) Message {
	subject := fmt.Sprintf("Pedido Confirmado - %s", d.OrderNumber)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Pedido Confirmado!</h1>
    <p>Olá <strong>%s</strong>,</p>
    <p>Seu pedido foi confirmado com sucesso!</p>
    <p><strong>Número do Pedido:</strong> %s</p>
    <p><strong>Produto:</strong> %s</p>
    <p><strong>Valor:</strong> %s</p>
    <p>Aguardando confirmação do pagamento via Pix. Assim que o pagamento for
    confirmado, você receberá um novo email com o link para download do seu
    conteúdo.</p>
    <p>O link de pagamento expira em 30 minutos.</p>
  </div>
</body>
</html>`, d.CustomerName, d.OrderNumber, d.ProductName, formatReais(d.AmountInCents))

	text := fmt.Sprintf(`Pedido Confirmado!

Olá %s,

Seu pedido foi confirmado com sucesso!

Número do Pedido: %s
Produto: %s
Valor: %s

Aguardando confirmação do pagamento via Pix. Assim que o pagamento for
confirmado, você receberá um novo email com o link para download.
O link de pagamento expira em 30 minutos.`,
		d.CustomerName, d.OrderNumber, d.ProductName, formatReais(d.AmountInCents))

	return Message{Subject: subject, HTMLBody: html, TextBody: text}
}

// DownloadReady renders the download-ready email
func DownloadReady(d DownloadLinkData) Message {
	subject := fmt.Sprintf("Seu conteúdo está pronto! - %s", d.OrderNumber)

	expires := d.ExpiresAt.Format("02/01/2006")

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Pagamento Confirmado!</h1>
    <p>Olá <strong>%s</strong>,</p>
    <p>Seu pagamento foi confirmado e o seu conteúdo já está disponível.</p>
    <p><strong>Número do Pedido:</strong> %s</p>
    <p><strong>Produto:</strong> %s</p>
    <p><a href="%s" style="display: inline-block; padding: 15px 30px; background: #ec4899; color: #fff; text-decoration: none; border-radius: 5px;">Acessar conteúdo</a></p>
    <p>O link é válido até %s e permite no máximo 3 downloads.</p>
  </div>
</body>
</html>`, d.CustomerName, d.OrderNumber, d.ProductName, d.DownloadURL, expires)

	text := fmt.Sprintf(`Pagamento Confirmado!

Olá %s,

Seu pagamento foi confirmado e o seu conteúdo já está disponível.

Número do Pedido: %s
Produto: %s
Link de acesso: %s

O link é válido até %s e permite no máximo 3 downloads.`,
		d.CustomerName, d.OrderNumber, d.ProductName, d.DownloadURL, expires)

	return Message{Subject: subject, HTMLBody: html, TextBody: text}
}
