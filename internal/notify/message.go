package notify

import (
	"fmt"
	"time"
)

// Message is a fully rendered outbound email. Services render the body at
// enqueue time so the mailer worker stays a dumb pipe.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func LoginAlert(email string, at time.Time) Message {
	return Message{
		To:      email,
		Subject: "New Login Alert",
		Body: fmt.Sprintf(
			"Hello,\n\nYour Smart Library account was logged into at %s.\n"+
				"If this was you, you can ignore this email. If not, reset your password immediately.\n",
			at.Format(time.RFC1123)),
	}
}

func Invitation(email, name, otp string, expiresAt time.Time) Message {
	return Message{
		To:      email,
		Subject: "Welcome To Smart Library",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYou have been registered in the Smart Library system.\n"+
				"Your one-time passcode to activate your account is: %s\n"+
				"It is valid until %s.\n",
			name, otp, expiresAt.Format(time.RFC1123)),
	}
}

func PasswordReset(email, otp string, expiresAt time.Time) Message {
	return Message{
		To:      email,
		Subject: "Password Reset Request",
		Body: fmt.Sprintf(
			"Hello,\n\nYou requested to reset your password. Use this one-time passcode: %s\n"+
				"It is valid until %s. Do not share it with anyone.\n"+
				"If you did not request this, please ignore this email.\n",
			otp, expiresAt.Format(time.RFC1123)),
	}
}

func ActivationConfirmed(email string) Message {
	return Message{
		To:      email,
		Subject: "Activation / Password Reset Successful",
		Body: "Hello,\n\nYour account has been activated and your password has been updated.\n" +
			"You can now log in to your account.\n",
	}
}

func BorrowConfirmation(email, bookName string, dueDate time.Time) Message {
	return Message{
		To:      email,
		Subject: "Book Borrowed",
		Body: fmt.Sprintf(
			"Hello,\n\nYou borrowed %q. It is due back on %s.\n"+
				"Late returns accrue a daily fee.\n",
			bookName, dueDate.Format("Mon, 02 Jan 2006")),
	}
}

func DueReminder(email, bookName string, dueDate time.Time) Message {
	return Message{
		To:      email,
		Subject: "Return Reminder",
		Body: fmt.Sprintf(
			"Hello,\n\nA reminder that %q is due back on %s.\n"+
				"Please return it in time to avoid late fees.\n",
			bookName, dueDate.Format("Mon, 02 Jan 2006")),
	}
}
