package server

import (
	"fmt"
	"net/http"
)

// handleAssignJS serves the client script that applies assignments in the
// browser
func (s *Server) handleAssignJS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	serverURL := fmt.Sprintf("%s://%s", requestScheme(r), r.Host)

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write([]byte(GenerateAssignScript(serverURL)))
}

// GenerateAssignScript generates the ab.js script for the given server URL.
// The visitor id lives in the site's localStorage and cookie-backed
// assignments in the site's own cookies, so persistence does not depend on
// third-party cookies. Edit results are exposed as window.abTestResults and
// announced with one abTestEditsTriggered event per test.
func GenerateAssignScript(serverURL string) string {
	return fmt.Sprintf(`(function(){
  var S='%s';
  var K='%s';
  var P='abTest_';
  window.abTestResults=window.abTestResults||{};

  var vid=null;
  try{vid=localStorage.getItem(K);}catch(e){}

  // Only this script's cookies are forwarded
  var ck=document.cookie.split(';').map(function(c){return c.trim();})
    .filter(function(c){return c.indexOf(P)===0;}).join('; ');

  var q='?url='+encodeURIComponent(location.href);
  if(vid)q+='&vid='+encodeURIComponent(vid);
  if(ck)q+='&cookies='+encodeURIComponent(ck);

  fetch(S+'/api/assign'+q)
    .then(function(r){return r.ok?r.json():null;})
    .then(function(res){
      if(!res)return;

      if(res.visitor_id){
        try{localStorage.setItem(K,res.visitor_id);}catch(e){}
      }

      (res.cookies||[]).forEach(function(c){
        document.cookie=c.name+'='+encodeURIComponent(c.value)+
          '; path=/; max-age='+(c.days*86400)+'; SameSite=Lax';
      });

      // Redirect wins over edits
      if(res.redirect&&res.redirect!==location.href){
        location.href=res.redirect;
        return;
      }

      (res.edits||[]).forEach(function(e){
        window.abTestResults[e.testId]=e.variant;
        window.dispatchEvent(new CustomEvent('abTestEditsTriggered',{
          detail:{testId:e.testId,variant:e.variant}
        }));
      });
    })
    .catch(function(err){console.log('splithub:',err);});
})();`, serverURL, visitorCookieName)
}
