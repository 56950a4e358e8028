package utils

import (
	"dms/config"
	"fmt"
	"net/smtp"
)

// SendApprovalEmail notifies the issuer contact that a degree was approved.
// Best-effort: callers fire it in a goroutine and ignore the error.
func SendApprovalEmail(email, recipientName, serialNumber, approverEmail string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password // App password

	to := []string{email}

	subject := "Subject: Degree Approved\nMIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"

	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 600px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px; box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);">
					<h2 style="color: #333333; text-align: center;">Degree Approved</h2>
					<p style="font-size: 16px; color: #555555;">The degree issued to <b>%s</b> has been approved and digitally signed.</p>
					<div style="background-color: #f8f9fa; border-radius: 8px; padding: 20px; margin: 20px 0; text-align: center;">
						<p style="font-size: 14px; color: #666666; margin-bottom: 10px;">Serial Number:</p>
						<h2 style="color: #2196F3; margin: 0;">%s</h2>
					</div>
					<p style="font-size: 14px; color: #666666;">Approved by %s. The degree is now publicly verifiable by its serial number.</p>
				</div>
			</body>
		</html>
	`, recipientName, serialNumber, approverEmail)

	message := []byte(subject + "\n" + body)

	// Auth setup
	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, message)
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}

	return nil
}
