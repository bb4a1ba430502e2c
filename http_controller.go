package userservice

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/jagajithmk/CodeCraftHub/middleware/jwtware"
)

var hasDigit = regexp.MustCompile(`\d`)

type UserControllerRoutes struct {
	Register string
	Login    string
	Profile  string
	Progress string
	Admin    string
}

type UserController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       *Auther
	Routes       *UserControllerRoutes
	ErrorHandler fiber.ErrorHandler

	register   *RegisterUserHandler
	contextKey string
}

type UserControllerOption func(*UserController) *UserController

func WithControllerLogger(logger Logger) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *Auther) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Auther = auther
		return c
	}
}

func WithControllerDebug(debug bool) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Debug = debug
		return c
	}
}

func NewUserController(opts ...UserControllerOption) *UserController {
	c := &UserController{
		Logger: defLogger{},
		Routes: &UserControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Profile:  "/profile",
			Progress: "/progress",
			Admin:    "/",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in user controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in user controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.defaultErrHandler
	}

	c.register = NewRegisterUserHandler(c.Repo)

	return c
}

// RegisterUserRoutes mounts the controller routes. Public register/login,
// token protected profile/progress, role gated admin routes.
func RegisterUserRoutes(app fiber.Router, controller *UserController, cfg Config) {
	controller.contextKey = cfg.GetContextKey()

	protected := jwtware.New(jwtware.Config{
		TokenValidator:  TokenValidatorAdapter(controller.Auther.TokenService()),
		ContextKey:      cfg.GetContextKey(),
		AuthScheme:      cfg.GetAuthScheme(),
		ErrorHandler:    controller.AuthErrorHandler,
		ContextEnricher: ContextEnricherAdapter,
	})
	adminOnly := jwtware.RequireRole(RoleAdmin, jwtware.Config{
		ContextKey:   cfg.GetContextKey(),
		ErrorHandler: controller.AuthErrorHandler,
	})

	app.Post(controller.Routes.Register, controller.Register)
	app.Post(controller.Routes.Login, controller.Login)

	app.Get(controller.Routes.Profile, protected, controller.ProfileShow)
	app.Put(controller.Routes.Profile, protected, controller.ProfileUpdate)
	app.Get(controller.Routes.Progress, protected, controller.ProgressShow)
	app.Post(controller.Routes.Progress, protected, controller.ProgressUpdate)

	app.Get(controller.Routes.Admin, protected, adminOnly, controller.UsersIndex)
	app.Get("/:id", protected, adminOnly, controller.UserShow)
	app.Put("/:id", protected, adminOnly, controller.UserUpdate)
	app.Delete("/:id", protected, adminOnly, controller.UserDelete)
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Username            string   `json:"username"`
	Email               string   `json:"email"`
	Password            string   `json:"password"`
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	Skills              []string `json:"skills"`
	LearningPreferences []string `json:"learning_preferences"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 30)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100), validation.Match(hasDigit).Error("must contain a number")),
		validation.Field(&r.FirstName, validation.Length(2, 50)),
		validation.Field(&r.LastName, validation.Length(2, 50)),
	)
}

func (a *UserController) Register(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return a.validationError(c, fiber.Map{"body": "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return a.validationError(c, err)
	}

	if a.Debug {
		a.Logger.Debug("register payload %s", print.MaybePrettyJSON(payload))
	}

	user, err := a.register.Execute(c.UserContext(), RegisterUserMessage{
		Username:            payload.Username,
		Email:               payload.Email,
		Password:            payload.Password,
		FirstName:           payload.FirstName,
		LastName:            payload.LastName,
		Skills:              payload.Skills,
		LearningPreferences: payload.LearningPreferences,
	})
	if err != nil {
		a.Logger.Error("register user: %v", err)
		return a.ErrorHandler(c, err)
	}

	token, err := a.Auther.IssueToken(identityFromUser(user))
	if err != nil {
		a.Logger.Error("register user issue token: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":       user.ID,
				"username": user.Username,
				"email":    user.Email,
			},
			"token": token,
		},
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *UserController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.validationError(c, fiber.Map{"body": "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login: %v", err)
		return a.ErrorHandler(c, err)
	}

	user, err := a.Repo.Users().GetByIdentifier(c.UserContext(), payload.Email)
	if err != nil {
		a.Logger.Error("login user lookup: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":       user.ID,
				"username": user.Username,
				"email":    user.Email,
			},
			"token": token,
		},
	})
}

func (a *UserController) ProfileShow(c *fiber.Ctx) error {
	claims, ok := jwtware.ClaimsFromContext(c, a.contextKey)
	if !ok {
		return a.ErrorHandler(c, ErrNotAuthenticated)
	}

	user, err := a.Repo.Users().GetByID(c.UserContext(), claims.UserID())
	if err != nil {
		return a.ErrorHandler(c, userLookupError(err))
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"user": user},
	})
}

// ProfileUpdatePayload carries the self service allow list
type ProfileUpdatePayload struct {
	FirstName           *string  `json:"first_name"`
	LastName            *string  `json:"last_name"`
	Skills              []string `json:"skills"`
	LearningPreferences []string `json:"learning_preferences"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(2, 50)),
		validation.Field(&r.LastName, validation.Length(2, 50)),
	)
}

func (a *UserController) ProfileUpdate(c *fiber.Ctx) error {
	claims, ok := jwtware.ClaimsFromContext(c, a.contextKey)
	if !ok {
		return a.ErrorHandler(c, ErrNotAuthenticated)
	}

	payload := new(ProfileUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return a.validationError(c, fiber.Map{"body": "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return a.ErrorHandler(c, ErrTokenMalformed)
	}

	user, err := a.Repo.Users().UpdateProfile(c.UserContext(), id, ProfileUpdate{
		FirstName:           payload.FirstName,
		LastName:            payload.LastName,
		Skills:              payload.Skills,
		LearningPreferences: payload.LearningPreferences,
	})
	if err != nil {
		a.Logger.Error("profile update: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"user": user},
	})
}

func (a *UserController) ProgressShow(c *fiber.Ctx) error {
	claims, ok := jwtware.ClaimsFromContext(c, a.contextKey)
	if !ok {
		return a.ErrorHandler(c, ErrNotAuthenticated)
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return a.ErrorHandler(c, ErrTokenMalformed)
	}

	progress, err := a.Repo.Progress().ListByUser(c.UserContext(), id)
	if err != nil {
		a.Logger.Error("progress lookup: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"progress": progress},
	})
}

// ProgressUpdatePayload upserts one course progress entry
type ProgressUpdatePayload struct {
	CourseID string   `json:"course_id"`
	Progress *float64 `json:"progress"`
}

// Validate will validate the payload
func (r ProgressUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CourseID, validation.Required),
		validation.Field(&r.Progress, validation.NotNil),
	)
}

func (a *UserController) ProgressUpdate(c *fiber.Ctx) error {
	claims, ok := jwtware.ClaimsFromContext(c, a.contextKey)
	if !ok {
		return a.ErrorHandler(c, ErrNotAuthenticated)
	}

	payload := new(ProgressUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return a.validationError(c, fiber.Map{"body": "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return a.ErrorHandler(c, ErrTokenMalformed)
	}

	if _, err := a.Repo.Progress().SetProgress(c.UserContext(), id, payload.CourseID, *payload.Progress); err != nil {
		a.Logger.Error("progress upsert: %v", err)
		return a.ErrorHandler(c, err)
	}

	progress, err := a.Repo.Progress().ListByUser(c.UserContext(), id)
	if err != nil {
		a.Logger.Error("progress lookup: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"progress": progress},
	})
}

func (a *UserController) UsersIndex(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	records, total, err := a.Repo.Users().ListPage(c.UserContext(), page, limit)
	if err != nil {
		a.Logger.Error("users index: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"results": len(records),
		"total":   total,
		"data":    fiber.Map{"users": records},
	})
}

func (a *UserController) UserShow(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return a.validationError(c, fiber.Map{"id": "must be a valid UUID"})
	}

	user, err := a.Repo.Users().GetByID(c.UserContext(), id.String())
	if err != nil {
		return a.ErrorHandler(c, userLookupError(err))
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"user": user},
	})
}

// AdminUpdatePayload extends the profile allow list with privileged fields
type AdminUpdatePayload struct {
	ProfileUpdatePayload
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

func (a *UserController) UserUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return a.validationError(c, fiber.Map{"id": "must be a valid UUID"})
	}

	payload := new(AdminUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return a.validationError(c, fiber.Map{"body": "failed to parse request body"})
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	user, err := a.Repo.Users().AdminUpdate(c.UserContext(), id, AdminUserUpdate{
		ProfileUpdate: ProfileUpdate{
			FirstName:           payload.FirstName,
			LastName:            payload.LastName,
			Skills:              payload.Skills,
			LearningPreferences: payload.LearningPreferences,
		},
		Role:     payload.Role,
		IsActive: payload.IsActive,
	})
	if err != nil {
		a.Logger.Error("admin user update: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"user": user},
	})
}

func (a *UserController) UserDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return a.validationError(c, fiber.Map{"id": "must be a valid UUID"})
	}

	if err := a.Repo.Users().Deactivate(c.UserContext(), id); err != nil {
		a.Logger.Error("user deactivate: %v", err)
		return a.ErrorHandler(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// AuthErrorHandler maps guard failures onto the error taxonomy before the
// generic handler renders them.
func (a *UserController) AuthErrorHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error

	switch {
	case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
		richErr = ErrMissingToken
	case errors.Is(err, jwtware.ErrMissingAuthContext):
		richErr = ErrNotAuthenticated
	case errors.Is(err, jwtware.ErrInsufficientRole):
		richErr = ErrForbidden
	case IsTokenExpiredError(err):
		richErr = ErrTokenExpired
	case IsMalformedError(err):
		richErr = ErrTokenMalformed
	default:
		if !goerrors.As(err, &richErr) {
			richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid authentication token").
				WithCode(goerrors.CodeUnauthorized)
		}
	}

	return a.ErrorHandler(c, richErr)
}

func (a *UserController) defaultErrHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		if richErr.Category == goerrors.CategoryRateLimit {
			status = fiber.StatusTooManyRequests
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	a.Logger.Info(
		"request error %s category=%s code=%s path=%s",
		richErr.Message,
		richErr.Category,
		richErr.TextCode,
		c.OriginalURL(),
	)

	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": richErr.Message,
		"code":    richErr.TextCode,
	})
}

func (a *UserController) validationError(c *fiber.Ctx, details any) error {
	if err, ok := details.(error); ok {
		details = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"message": "validation failed",
		"details": details,
	})
}

func userLookupError(err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryNotFound {
		return ErrUserNotFound
	}
	return err
}
