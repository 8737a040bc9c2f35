package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, fullName string) error
	SendAuditNotice(toEmail, contractLabel string, version, criticalCount int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
	}
}

func (s *emailService) SendWelcome(toEmail, fullName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Bienvenue sur 9anonAI")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Bienvenue, %s !</h2>
			<p>Votre compte 9anonAI est prêt. Posez vos questions de droit marocain
			ou rédigez vos contrats directement depuis votre espace.</p>
			<p>9anonAI fournit des informations juridiques, pas un avis d'avocat.</p>
		</div>
	`, fullName)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send welcome to %s: %v\n", toEmail, err)
		return err
	}
	return nil
}

// SendAuditNotice warns the user that the compliance review of their
// draft found critical issues.
func (s *emailService) SendAuditNotice(toEmail, contractLabel string, version, criticalCount int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Révision juridique: %d problème(s) critique(s)", criticalCount))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Votre %s nécessite votre attention</h2>
			<p>La vérification de conformité de la version %d a détecté
			<strong>%d problème(s) critique(s)</strong>.</p>
			<p>Connectez-vous à votre espace 9anonAI pour consulter le détail
			des clauses concernées et la version corrigée proposée.</p>
			<p>Ce message est généré automatiquement; il ne remplace pas
			l'avis d'un juriste.</p>
		</div>
	`, contractLabel, version, criticalCount)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send audit notice to %s: %v\n", toEmail, err)
		return err
	}
	return nil
}
