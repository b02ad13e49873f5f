package controllers

import (
	"net/http"

	"github.com/angelmondragon/vendorverse/api/responses"
	"github.com/angelmondragon/vendorverse/api/validators"
	"github.com/angelmondragon/vendorverse/internal/session"
	"github.com/angelmondragon/vendorverse/pkg/enums"
	"github.com/angelmondragon/vendorverse/pkg/logger"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required"`
	ConfirmPassword  string `json:"confirm_password" validate:"required,eqfield=Password"`
	Name             string `json:"name" validate:"required"`
	Role             string `json:"role" validate:"required,oneof=customer merchant"`
	StoreName        string `json:"store_name" validate:"required_if=Role merchant"`
	StoreDescription string `json:"store_description"`
}

// AuthLogin signs the client in with the mock credential.
func AuthLogin(svc clientOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := openClient(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := client.Session.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponse(user))
	}
}

// AuthRegister creates a customer or merchant account and signs it in.
func AuthRegister(svc clientOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := openClient(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := client.Session.Register(r.Context(), session.RegisterInput{
			Email:            body.Email,
			Password:         body.Password,
			Name:             body.Name,
			Role:             enums.Role(body.Role),
			StoreName:        body.StoreName,
			StoreDescription: body.StoreDescription,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse(user))
	}
}

// AuthLogout signs the client out. The cart is left as is.
func AuthLogout(svc clientOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := openClient(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := client.Session.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponse(nil))
	}
}

func AuthMe(svc clientOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := openClient(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse(client.Session.Current()))
	}
}
