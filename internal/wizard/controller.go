// Package wizard drives the four-step onboarding flow. The Controller holds the
// form state a UI binds to and performs every transition; it never renders.
package wizard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/deployment"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/fieldcheck"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/gateway"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/validator"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
)

var (
	// ErrBusy rejects a transition while a check or submission is running.
	ErrBusy = errors.New("wizard is busy")
	// ErrInvalid means the current step has field errors; see State.Errors.
	ErrInvalid = errors.New("step has validation errors")
	// ErrSubmission means a gateway call failed; the message is attached to a field.
	ErrSubmission = errors.New("submission failed")
	// ErrTerminal is returned for any transition out of StepComplete.
	ErrTerminal = errors.New("wizard is complete")
	// ErrNotComplete is returned by completion actions before StepComplete.
	ErrNotComplete = errors.New("wizard is not complete")
)

// Gateway is the remote side of the wizard. *gateway.Client satisfies it.
type Gateway interface {
	SubmitOnboarding(ctx context.Context, company gateway.CompanyData, contact gateway.ContactData, domain gateway.DomainData, submissionID string) gateway.OnboardingResult
	VerifyDNS(ctx context.Context, domain string) model.DNSVerification
	VerifyDNSWithGoogle(ctx context.Context, domain string) model.DNSVerification
	TriggerDeployment(ctx context.Context, req model.DeploymentRequest) gateway.DeploymentResult
	SaveConversion(ctx context.Context, data gateway.ConversionData) gateway.Result
}

// FieldValidator runs the asynchronous email and phone checks. cb must not be
// called on the caller's goroutine. *fieldcheck.Validator satisfies it.
type FieldValidator interface {
	ValidateEmail(ctx context.Context, raw string, cb func(fieldcheck.FieldResult)) fieldcheck.FieldResult
	ValidatePhone(ctx context.Context, raw string, cb func(fieldcheck.FieldResult)) fieldcheck.FieldResult
}

// Simulator is the deployment progress view started after step 3.
type Simulator interface {
	Start(onComplete func()) error
	Stop()
	Snapshot() deployment.Snapshot
}

// DNS providers for VerifyDomain.
const (
	DNSProviderGoogle    = "googledns"
	DNSProviderSiterelic = "siterelic"
)

// Options tunes the controller.
type Options struct {
	// SubmitAtContact persists the lead when leaving step 2 as well as step 3.
	SubmitAtContact bool
	// CMSPassword is shown verbatim on the completion screen.
	CMSPassword string
	// DNSProvider selects the verification backend; Google DNS by default.
	DNSProvider string
	// NewSimulator builds the progress view; deployment.NewSimulator by default.
	NewSimulator func(domain string) Simulator
	// OnChange is called with a copy of the state after every mutation.
	OnChange func(State)
}

// State is a copy of the wizard state.
type State struct {
	Step                Step                      `json:"step"`
	Company             gateway.CompanyData       `json:"company"`
	Contact             gateway.ContactData       `json:"contact"`
	Domain              gateway.DomainData        `json:"domain"`
	EmailStatus         fieldcheck.FieldResult    `json:"emailStatus"`
	PhoneStatus         fieldcheck.FieldResult    `json:"phoneStatus"`
	Errors              map[string]string         `json:"errors"`
	Loading             bool                      `json:"loading"`
	VerifyingDNS        bool                      `json:"verifyingDNS"`
	Deploying           bool                      `json:"deploying"`
	DNS                 *model.DNSVerification    `json:"dns,omitempty"`
	Deployment          *gateway.DeploymentResult `json:"deployment,omitempty"`
	Notice              string                    `json:"notice,omitempty"`
	SubmissionID        string                    `json:"submissionId"`
	// ContactSubmissionID keys the partial lead stored at step 2 so it never
	// collides with the complete lead stored at step 3.
	ContactSubmissionID string                    `json:"contactSubmissionId,omitempty"`
}

// CanSubmit reports whether the submit control should be enabled.
func (s State) CanSubmit() bool {
	return !s.EmailStatus.IsChecking && !s.PhoneStatus.IsChecking && !s.Loading && !s.VerifyingDNS && !s.Deploying && s.Step != StepComplete
}

// Controller is one wizard instance.
type Controller struct {
	mu        sync.Mutex
	state     State
	gw        Gateway
	validator FieldValidator
	opts      Options
	sim       Simulator
}

// New creates a wizard at StepCompany with fresh submission ids.
func New(gw Gateway, v FieldValidator, opts Options) *Controller {
	if opts.NewSimulator == nil {
		opts.NewSimulator = func(domain string) Simulator { return deployment.NewSimulator(domain) }
	}
	if opts.DNSProvider == "" {
		opts.DNSProvider = DNSProviderGoogle
	}
	return &Controller{
		gw:        gw,
		validator: v,
		opts:      opts,
		state: State{
			Step:                StepCompany,
			Errors:              map[string]string{},
			SubmissionID:        uuid.NewString(),
			ContactSubmissionID: uuid.NewString(),
		},
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Errors = make(map[string]string, len(c.state.Errors))
	for k, v := range c.state.Errors {
		s.Errors[k] = v
	}
	if c.state.DNS != nil {
		dns := *c.state.DNS
		s.DNS = &dns
	}
	if c.state.Deployment != nil {
		dep := *c.state.Deployment
		s.Deployment = &dep
	}
	return s
}

// unlockAndNotify releases the lock and reports the new state.
func (c *Controller) unlockAndNotify() {
	var s State
	notify := c.opts.OnChange != nil
	if notify {
		s = c.snapshotLocked()
	}
	c.mu.Unlock()
	if notify {
		c.opts.OnChange(s)
	}
}

// SetCompany replaces the step-1 form.
func (c *Controller) SetCompany(company gateway.CompanyData) {
	c.mu.Lock()
	c.state.Company = company
	delete(c.state.Errors, "companyName")
	delete(c.state.Errors, "industry")
	delete(c.state.Errors, "size")
	c.unlockAndNotify()
}

// SetContact replaces the step-2 form and starts the async checks for a changed
// email or phone number.
func (c *Controller) SetContact(ctx context.Context, contact gateway.ContactData) {
	c.mu.Lock()
	prev := c.state.Contact
	c.state.Contact = contact
	if c.state.Domain.Email == "" || c.state.Domain.Email == prev.Email {
		c.state.Domain.Email = contact.Email
	}
	for _, f := range []string{"firstName", "lastName", "email", "phoneNumber", "jobTitle"} {
		delete(c.state.Errors, f)
	}

	if contact.Email != prev.Email {
		c.state.EmailStatus = c.validator.ValidateEmail(ctx, contact.Email, func(r fieldcheck.FieldResult) {
			c.applyFieldResult(contact.Email, r, true)
		})
	}
	if contact.PhoneNumber != prev.PhoneNumber {
		c.state.PhoneStatus = c.validator.ValidatePhone(ctx, contact.PhoneNumber, func(r fieldcheck.FieldResult) {
			c.applyFieldResult(contact.PhoneNumber, r, false)
		})
	}
	c.unlockAndNotify()
}

// applyFieldResult stores an async verdict unless the field changed since the check started.
func (c *Controller) applyFieldResult(value string, r fieldcheck.FieldResult, email bool) {
	c.mu.Lock()
	if email {
		if c.state.Contact.Email != value {
			c.mu.Unlock()
			return
		}
		c.state.EmailStatus = r
	} else {
		if c.state.Contact.PhoneNumber != value {
			c.mu.Unlock()
			return
		}
		c.state.PhoneStatus = r
	}
	c.unlockAndNotify()
}

// SetDomain replaces the custom domain. A changed domain must be verified again.
func (c *Controller) SetDomain(domain string) {
	c.mu.Lock()
	if domain != c.state.Domain.CustomDomain {
		c.state.Domain.CustomDomain = domain
		c.state.Domain.IsDNSVerified = false
		c.state.DNS = nil
	}
	delete(c.state.Errors, "customDomain")
	c.unlockAndNotify()
}

// SetDomainEmail overrides the deployment contact email, which defaults to the step-2 email.
func (c *Controller) SetDomainEmail(email string) {
	c.mu.Lock()
	c.state.Domain.Email = email
	delete(c.state.Errors, "email")
	c.unlockAndNotify()
}

// Back moves one step backward. It is a no-op at StepCompany.
func (c *Controller) Back() error {
	c.mu.Lock()
	switch {
	case c.state.Step == StepComplete:
		c.mu.Unlock()
		return ErrTerminal
	case c.state.Loading || c.state.Deploying || c.state.VerifyingDNS:
		c.mu.Unlock()
		return ErrBusy
	case c.state.Step == StepCompany:
		c.mu.Unlock()
		return nil
	}
	c.state.Step--
	c.state.Errors = map[string]string{}
	c.unlockAndNotify()
	return nil
}

// Next validates the current step and advances. Step 3 persists the lead,
// triggers the deployment and starts the progress view; the move to
// StepComplete happens when that view finishes.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Step == StepComplete {
		c.mu.Unlock()
		return ErrTerminal
	}
	if !c.state.CanSubmit() {
		c.mu.Unlock()
		return ErrBusy
	}

	switch c.state.Step {
	case StepCompany:
		if errs := validateCompany(c.state.Company); len(errs) > 0 {
			return c.failLocked(errs)
		}
		c.advanceLocked(StepContact)
		return nil

	case StepContact:
		if errs := validateContact(c.state.Contact, c.state.EmailStatus, c.state.PhoneStatus); len(errs) > 0 {
			return c.failLocked(errs)
		}
		if !c.opts.SubmitAtContact {
			c.advanceLocked(StepDomain)
			return nil
		}
		return c.submitContactStep(ctx)

	default:
		if errs := validateDomain(c.state.Domain); len(errs) > 0 {
			return c.failLocked(errs)
		}
		return c.submitDomainStep(ctx)
	}
}

func (c *Controller) failLocked(errs map[string]string) error {
	c.state.Errors = errs
	c.unlockAndNotify()
	return ErrInvalid
}

func (c *Controller) advanceLocked(to Step) {
	c.state.Step = to
	c.state.Errors = map[string]string{}
	c.unlockAndNotify()
}

// beginLocked marks a submission in flight and returns the inputs it needs.
// The lock is released.
func (c *Controller) beginLocked() State {
	c.state.Loading = true
	s := c.snapshotLocked()
	c.unlockAndNotify()
	return s
}

func (c *Controller) submitContactStep(ctx context.Context) error {
	s := c.beginLocked()

	domain := gateway.DomainData{Email: s.Contact.Email}
	res := c.gw.SubmitOnboarding(ctx, s.Company, s.Contact, domain, s.ContactSubmissionID)

	c.mu.Lock()
	c.state.Loading = false
	if !res.Success {
		logger.FromContext(ctx).Warn("Contact step submission failed", zap.String("kind", string(res.Kind)), zap.String("message", res.Message))
		c.state.Errors = map[string]string{"email": res.Message}
		c.unlockAndNotify()
		return ErrSubmission
	}
	c.advanceLocked(StepDomain)
	return nil
}

func (c *Controller) submitDomainStep(ctx context.Context) error {
	s := c.beginLocked()
	log := logger.FromContext(ctx).With(zap.String("domain", s.Domain.CustomDomain))

	saved := c.gw.SubmitOnboarding(ctx, s.Company, s.Contact, s.Domain, s.SubmissionID)
	if !saved.Success {
		log.Warn("Onboarding submission failed", zap.String("kind", string(saved.Kind)), zap.String("message", saved.Message))
		return c.abortDomainStep(saved.Message, nil)
	}

	deployed := c.gw.TriggerDeployment(ctx, model.DeploymentRequest{Domain: s.Domain.CustomDomain, Email: s.Domain.Email})
	if !deployed.Success {
		log.Warn("Deployment trigger failed", zap.String("kind", string(deployed.Kind)), zap.String("message", deployed.Message))
		return c.abortDomainStep(deployed.Message, &deployed)
	}
	log.Info("Deployment triggered", zap.String("job_id", deployed.JobID), zap.Int64("onboarding_id", saved.ID))

	sim := c.opts.NewSimulator(s.Domain.CustomDomain)

	c.mu.Lock()
	c.state.Loading = false
	c.state.Deploying = true
	c.state.Deployment = &deployed
	c.state.Errors = map[string]string{}
	c.sim = sim
	c.unlockAndNotify()

	if err := sim.Start(c.finishDeployment); err != nil {
		log.Error("Failed to start deployment progress", zap.Error(err))
		c.finishDeployment()
	}
	return nil
}

func (c *Controller) abortDomainStep(msg string, deployed *gateway.DeploymentResult) error {
	c.mu.Lock()
	c.state.Loading = false
	c.state.Deployment = deployed
	c.state.Errors = map[string]string{"customDomain": msg}
	c.unlockAndNotify()
	return ErrSubmission
}

// finishDeployment performs the 3 -> 4 transition when the progress view completes.
func (c *Controller) finishDeployment() {
	c.mu.Lock()
	if c.state.Step != StepDomain || !c.state.Deploying {
		c.mu.Unlock()
		return
	}
	c.state.Deploying = false
	c.state.Step = StepComplete
	c.unlockAndNotify()
}

// DeploymentProgress returns the progress view while deploying.
func (c *Controller) DeploymentProgress() (deployment.Snapshot, bool) {
	c.mu.Lock()
	sim := c.sim
	c.mu.Unlock()
	if sim == nil {
		return deployment.Snapshot{}, false
	}
	return sim.Snapshot(), true
}

// Close stops the progress view, if any. The wizard stays on step 3.
func (c *Controller) Close() {
	c.mu.Lock()
	sim := c.sim
	c.mu.Unlock()
	if sim != nil {
		sim.Stop()
	}
}

// VerifyDomain checks the DNS configuration of the current custom domain with
// the configured provider. A valid answer marks the domain verified.
func (c *Controller) VerifyDomain(ctx context.Context) (model.DNSVerification, error) {
	c.mu.Lock()
	if c.state.Step == StepComplete {
		c.mu.Unlock()
		return model.DNSVerification{}, ErrTerminal
	}
	if c.state.VerifyingDNS || c.state.Loading || c.state.Deploying {
		c.mu.Unlock()
		return model.DNSVerification{}, ErrBusy
	}
	domain := c.state.Domain.CustomDomain
	if blank(domain) || !validator.IsDomainName(domain) {
		msg := "Please enter a valid domain name"
		if blank(domain) {
			msg = "Custom domain is required"
		}
		c.state.Errors["customDomain"] = msg
		c.unlockAndNotify()
		return model.DNSVerification{}, ErrInvalid
	}
	c.state.VerifyingDNS = true
	c.unlockAndNotify()

	var v model.DNSVerification
	if c.opts.DNSProvider == DNSProviderSiterelic {
		v = c.gw.VerifyDNS(ctx, domain)
	} else {
		v = c.gw.VerifyDNSWithGoogle(ctx, domain)
	}

	c.mu.Lock()
	c.state.VerifyingDNS = false
	// the domain may have been edited while the lookup ran
	if c.state.Step == StepDomain && c.state.Domain.CustomDomain == domain {
		c.state.Domain.IsDNSVerified = v.IsValid
		c.state.DNS = &v
		if v.IsValid {
			delete(c.state.Errors, "customDomain")
		}
	}
	c.unlockAndNotify()
	return v, nil
}

// CompletionInfo is what the final screen shows.
type CompletionInfo struct {
	SiteURL       string `json:"siteUrl"`
	AdminURL      string `json:"adminUrl"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
	JobID         string `json:"jobId,omitempty"`
}

// CompletionInfo returns the site and CMS credentials once the wizard is complete.
func (c *Controller) CompletionInfo() (CompletionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step != StepComplete {
		return CompletionInfo{}, ErrNotComplete
	}
	domain := gateway.CleanDomain(c.state.Domain.CustomDomain)
	info := CompletionInfo{
		SiteURL:       "https://" + domain,
		AdminURL:      "https://" + domain + "/admin",
		AdminEmail:    c.state.Domain.Email,
		AdminPassword: c.opts.CMSPassword,
	}
	if c.state.Deployment != nil {
		info.JobID = c.state.Deployment.JobID
	}
	return info, nil
}

// GoToDashboard records the dashboard_visit conversion and returns the CMS
// URL. A failed conversion never blocks navigation; it only sets a notice.
func (c *Controller) GoToDashboard(ctx context.Context) (string, error) {
	info, err := c.CompletionInfo()
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	s := c.snapshotLocked()
	c.mu.Unlock()

	res := c.gw.SaveConversion(ctx, gateway.ConversionData{
		User: model.ConversionUser{
			FirstName:   s.Contact.FirstName,
			LastName:    s.Contact.LastName,
			Email:       s.Contact.Email,
			PhoneNumber: s.Contact.PhoneNumber,
			CompanyName: s.Company.CompanyName,
			Industry:    s.Company.Industry,
			Domain:      gateway.CleanDomain(s.Domain.CustomDomain),
		},
		ConversionType: model.ConversionDashboardVisit,
		Metadata: map[string]interface{}{
			"submissionId": s.SubmissionID,
			"jobId":        info.JobID,
		},
	})

	c.mu.Lock()
	if res.Success {
		c.state.Notice = ""
	} else {
		logger.FromContext(ctx).Warn("Failed to record dashboard visit", zap.String("kind", string(res.Kind)), zap.String("message", res.Message))
		c.state.Notice = "We could not record your visit, but your site is ready."
	}
	c.unlockAndNotify()
	return info.AdminURL, nil
}
