// Package billing contains the milestone invoicing domain model: renovation
// projects with percentage-of-completion milestones, the invoices generated
// when milestones complete, and the payment summary projection read by the
// contractor and homeowner dashboards.
package billing
