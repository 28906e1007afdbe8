package constant

const EmailRegistrationConfirmedTemplate = `
Dear %s,

Your registration for %s has been confirmed. Welcome aboard!

Registration Details:
------------------------------------------
Registration Number: %s
Event: %s
Ticket Code: %s
Amount Paid: %s
------------------------------------------

Please keep your ticket code safe - it will be checked at the venue entrance.

If you have any questions, write to us at lolo@srkr.ac.in.

Best regards,
SRKR LOLO Music Club

Note: This is an automated message, please do not reply to this email.
`

const EmailRegistrationPendingTemplate = `
Dear %s,

We have received your registration for %s.

Registration Details:
------------------------------------------
Registration Number: %s
Event: %s
Ticket Code: %s
Amount: %s
Transaction Reference: %s
------------------------------------------

Your payment is being verified. You will receive a confirmation email once our
team has matched your transaction reference. This usually takes less than a day.

If you have any questions, write to us at lolo@srkr.ac.in.

Best regards,
SRKR LOLO Music Club

Note: This is an automated message, please do not reply to this email.
`
