package service

import "github.com/spec-kit/shift-scheduler/internal/identity"

// Reason is a machine-readable classification of a workflow outcome.
// Callers branch on Reason and NeedsApproval, never on Message.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonEmailInUse             Reason = "email_in_use"
	ReasonWeakPassword           Reason = "weak_password"
	ReasonInvalidEmail           Reason = "invalid_email"
	ReasonUnauthorizedDepartment Reason = "unauthorized_department"
	ReasonInvalidDepartment      Reason = "invalid_department"
	ReasonSignUpFailed           Reason = "signup_failed"
	ReasonUserNotFound           Reason = "user_not_found"
	ReasonWrongPassword          Reason = "wrong_password"
	ReasonInvalidCredential      Reason = "invalid_credential"
	ReasonTooManyAttempts        Reason = "too_many_attempts"
	ReasonUserDisabled           Reason = "user_disabled"
	ReasonProfileNotFound        Reason = "profile_not_found"
	ReasonEmailNotVerified       Reason = "email_not_verified"
	ReasonPendingApproval        Reason = "pending_approval"
	ReasonRejected               Reason = "rejected"
	ReasonAccountDeleted         Reason = "account_deleted"
	ReasonSignInFailed           Reason = "signin_failed"
)

const (
	msgSignUpSuccess = "ההרשמה הושלמה בהצלחה!\n\n" +
		"השלבים הבאים:\n" +
		"1. אמת את כתובת האימייל שלך באמצעות הקישור שנשלח אליך\n" +
		"2. חזור לאתר ונסה להתחבר (כדי לעדכן את סטטוס האימות)\n" +
		"3. המתן לאישור מנהל המערכת"
	msgWorkerSignUpSuccess = "ההרשמה הושלמה בהצלחה! החשבון ממתין לאישור מנהל המחלקה"
	msgSignInSuccess       = "התחברת בהצלחה"

	msgEmailInUse             = "כתובת האימייל כבר רשומה במערכת"
	msgWeakPassword           = "הסיסמה חלשה מדי. יש להזין לפחות 6 תווים"
	msgInvalidEmail           = "כתובת האימייל אינה תקינה"
	msgSignUpFailed           = "אירעה שגיאה בתהליך ההרשמה"
	msgUnauthorizedDepartment = "רק בעל עסק יכול ליצור מחלקה חדשה"
	msgInvalidDepartment      = "יש לבחור מחלקה תקינה"
	msgCustomNameRequired     = "יש להזין שם מחלקה"

	msgUserNotFound      = "משתמש לא נמצא"
	msgWrongPassword     = "סיסמה שגויה"
	msgInvalidCredential = "פרטי ההתחברות שגויים"
	msgTooManyAttempts   = "יותר מדי ניסיונות התחברות. נסה שוב מאוחר יותר"
	msgUserDisabled      = "החשבון חסום. פנה למנהל המערכת"
	msgSignInFailed      = "אירעה שגיאה בהתחברות"
	msgProfileNotFound   = "משתמש לא נמצא במערכת"
	msgEmailNotVerified  = "יש לאמת את כתובת האימייל לפני ההתחברות"
	msgPendingApproval   = "החשבון ממתין לאישור מנהל המערכת"
	msgRejected          = "בקשת ההרשמה נדחתה"
	msgAccountDeleted    = "החשבון הושבת. פנה למנהל המערכת"

	unknownDepartmentName = "מחלקה לא ידועה"
)

// signUpFailure maps a provider error raised while creating a credential.
func signUpFailure(err error) (Reason, string) {
	switch identity.CodeOf(err) {
	case identity.CodeEmailAlreadyInUse:
		return ReasonEmailInUse, msgEmailInUse
	case identity.CodeWeakPassword:
		return ReasonWeakPassword, msgWeakPassword
	case identity.CodeInvalidEmail:
		return ReasonInvalidEmail, msgInvalidEmail
	default:
		return ReasonSignUpFailed, msgSignUpFailed
	}
}

// authenticationFailure maps a provider error raised while checking a password.
func authenticationFailure(err error) (Reason, string) {
	switch identity.CodeOf(err) {
	case identity.CodeUserNotFound:
		return ReasonUserNotFound, msgUserNotFound
	case identity.CodeWrongPassword:
		return ReasonWrongPassword, msgWrongPassword
	case identity.CodeInvalidCredential:
		return ReasonInvalidCredential, msgInvalidCredential
	case identity.CodeTooManyRequests:
		return ReasonTooManyAttempts, msgTooManyAttempts
	case identity.CodeInvalidEmail:
		return ReasonInvalidEmail, msgInvalidEmail
	case identity.CodeUserDisabled:
		return ReasonUserDisabled, msgUserDisabled
	default:
		return ReasonSignInFailed, msgSignInFailed
	}
}
