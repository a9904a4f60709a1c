package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("user"))
	adminAuthMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("admin"))

	// Вебхук Робокассы отвечает plain-текстом ("OK<invId>", "bad sign"),
	// поэтому makeResponseJSON сюда не подключаем.
	providerMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)

	mux := pat.New()

	// Users
	mux.Post("/user/sign_up", standardMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/user/sign_in", standardMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Get("/user", adminAuthMiddleware.ThenFunc(app.userHandler.GetUsers))
	mux.Get("/user/:id", authMiddleware.ThenFunc(app.userHandler.GetUserByID))
	mux.Put("/user/:id", authMiddleware.ThenFunc(app.userHandler.UpdateUser))
	mux.Del("/user/:id", adminAuthMiddleware.ThenFunc(app.userHandler.DeleteUser))
	mux.Post("/user/request_reset", standardMiddleware.ThenFunc(app.userHandler.RequestPasswordReset))
	mux.Post("/user/verify_reset_code", standardMiddleware.ThenFunc(app.userHandler.VerifyResetCode))
	mux.Post("/user/reset_password", standardMiddleware.ThenFunc(app.userHandler.ResetPassword))

	// Schools
	mux.Post("/school", adminAuthMiddleware.ThenFunc(app.schoolHandler.CreateSchool))
	mux.Get("/school", standardMiddleware.ThenFunc(app.schoolHandler.GetSchools))
	mux.Get("/school/:id", standardMiddleware.ThenFunc(app.schoolHandler.GetSchoolByID))
	mux.Put("/school/:id", adminAuthMiddleware.ThenFunc(app.schoolHandler.UpdateSchool))
	mux.Del("/school/:id", adminAuthMiddleware.ThenFunc(app.schoolHandler.DeleteSchool))
	mux.Post("/school/:id/photo", adminAuthMiddleware.ThenFunc(app.schoolHandler.UploadPhoto))

	// Children
	mux.Post("/child", authMiddleware.ThenFunc(app.childHandler.CreateChild))
	mux.Get("/child/:id", authMiddleware.ThenFunc(app.childHandler.GetChildByID))
	mux.Get("/child/parent/:parent_id", authMiddleware.ThenFunc(app.childHandler.GetChildrenByParent))
	mux.Put("/child/:id", authMiddleware.ThenFunc(app.childHandler.UpdateChild))
	mux.Del("/child/:id", authMiddleware.ThenFunc(app.childHandler.DeleteChild))

	// Workshops
	mux.Post("/workshop", adminAuthMiddleware.ThenFunc(app.workshopHandler.CreateWorkshop))
	mux.Get("/workshop/upcoming", standardMiddleware.ThenFunc(app.workshopHandler.GetUpcomingWorkshops))
	mux.Get("/workshop/school/:school_id", standardMiddleware.ThenFunc(app.workshopHandler.GetWorkshopsBySchool))
	mux.Get("/workshop/:id", standardMiddleware.ThenFunc(app.workshopHandler.GetWorkshopByID))
	mux.Put("/workshop/:id", adminAuthMiddleware.ThenFunc(app.workshopHandler.UpdateWorkshop))
	mux.Del("/workshop/:id", adminAuthMiddleware.ThenFunc(app.workshopHandler.DeleteWorkshop))

	// Заявки на мастер-классы
	mux.Post("/request", authMiddleware.ThenFunc(app.workshopHandler.CreateRequest))
	mux.Get("/request/user/:user_id", authMiddleware.ThenFunc(app.workshopHandler.GetRequestsByUser))
	mux.Put("/request/:id/status", adminAuthMiddleware.ThenFunc(app.workshopHandler.UpdateRequestStatus))

	// Payments
	mux.Post("/payment/robokassa/link", authMiddleware.ThenFunc(app.paymentHandler.CreatePaymentLink))
	mux.Post("/payment/robokassa/result", providerMiddleware.ThenFunc(app.paymentHandler.Result))
	mux.Get("/payment/robokassa/result", providerMiddleware.ThenFunc(app.paymentHandler.Result))
	mux.Get("/payment/robokassa/success", providerMiddleware.ThenFunc(app.paymentHandler.SuccessRedirect))
	mux.Get("/payment/robokassa/fail", providerMiddleware.ThenFunc(app.paymentHandler.FailRedirect))
	mux.Get("/payment/history/:user_id", authMiddleware.ThenFunc(app.paymentHandler.GetHistory))
	mux.Get("/admin/payments", adminAuthMiddleware.ThenFunc(app.paymentHandler.Monitoring))
	mux.Post("/admin/payments/:id/cancel", adminAuthMiddleware.ThenFunc(app.paymentHandler.Cancel))

	// Content pages
	mux.Get("/pages", standardMiddleware.ThenFunc(app.pageHandler.GetPages))
	mux.Get("/pages/:slug", standardMiddleware.ThenFunc(app.pageHandler.GetPage))
	mux.Put("/pages/:slug", adminAuthMiddleware.ThenFunc(app.pageHandler.UpsertPage))

	// Push tokens
	mux.Post("/push/token", authMiddleware.ThenFunc(app.pushHandler.CreateToken))
	mux.Del("/push/token/:token", authMiddleware.ThenFunc(app.pushHandler.DeleteToken))
	mux.Post("/push/notify_all", adminAuthMiddleware.ThenFunc(app.pushHandler.NotifyAll))

	// Realtime
	mux.Get("/ws", providerMiddleware.Append(app.JWTMiddlewareWithRole("user")).ThenFunc(app.WebSocketHandler))

	return mux
}
