package mailer

import "fmt"

func verificationEmailBody(appName, userName, verificationURL string) string {
	return fmt.Sprintf(`
  <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <div style="background-color: #f8f9fa; padding: 20px; text-align: center;">
      <h1 style="color: #333; margin: 0;">Welcome to %s!</h1>
    </div>
    <div style="padding: 20px; background-color: #ffffff;">
      <h2>Hi %s,</h2>
      <p>Please verify your email address by clicking below:</p>
      <div style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background:#007bff; color:white; padding:12px 30px; border-radius:5px;">Verify Email</a>
      </div>
      <p>If the button doesn't work, copy this link: %s</p>
    </div>
    <div style="background:#f8f9fa; text-align:center; padding:20px; font-size:12px;">This is an automated email. Do not reply.</div>
  </div>`, appName, userName, verificationURL, verificationURL)
}

func passwordResetEmailBody(userName, resetURL string) string {
	return fmt.Sprintf(`
  <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <div style="background-color: #f8f9fa; padding: 20px; text-align: center;">
      <h1>Password Reset Request</h1>
    </div>
    <div style="padding: 20px; background-color: #ffffff;">
      <h2>Hi %s,</h2>
      <p>Click the button below to reset your password:</p>
      <div style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background:#dc3545; color:white; padding:12px 30px; border-radius:5px;">Reset Password</a>
      </div>
      <p>If the button doesn't work, copy this link: %s</p>
    </div>
    <div style="background:#f8f9fa; text-align:center; padding:20px; font-size:12px;">This is an automated email. Do not reply.</div>
  </div>`, userName, resetURL, resetURL)
}

func otpEmailBody(otp string) string {
	return fmt.Sprintf(`
  <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <div style="background-color: #f8f9fa; padding: 20px; text-align: center;">
      <h1>OTP Verification</h1>
    </div>
    <div style="padding: 20px; background-color: #ffffff;">
      <p>Your OTP for setting up your password is:</p>
      <div style="text-align: center; margin: 30px 0;">
        <span style="background:#dc3545; color:white; padding:12px 30px; font-weight:bold; font-size:20px;">%s</span>
      </div>
    </div>
    <div style="background:#f8f9fa; text-align:center; padding:20px; font-size:12px;">This is an automated email. Do not reply.</div>
  </div>`, otp)
}
